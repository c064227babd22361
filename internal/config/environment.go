package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

// Environment variables that steer the browser session
const (
	EnvLaunchOptions   = "PUPPETEER_LAUNCH_OPTIONS"
	EnvAllowDangerous  = "ALLOW_DANGEROUS"
	EnvDockerContainer = "DOCKER_CONTAINER"
)

// Environment reads session settings from the process environment on every
// call, so a change between tool calls takes effect on the next one.
type Environment struct {
	lookup func(string) (string, bool)
}

// NewEnvironment returns an Environment backed by os.LookupEnv
func NewEnvironment() *Environment {
	return &Environment{lookup: os.LookupEnv}
}

// NewEnvironmentFromMap returns an Environment backed by a fixed map
func NewEnvironmentFromMap(vars map[string]string) *Environment {
	return &Environment{lookup: func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}}
}

// LaunchOptions parses PUPPETEER_LAUNCH_OPTIONS. Unparseable JSON is logged
// and treated as unset.
func (e *Environment) LaunchOptions() launchcfg.Config {
	raw, ok := e.lookup(EnvLaunchOptions)
	if !ok || strings.TrimSpace(raw) == "" {
		return launchcfg.Config{}
	}
	cfg, err := launchcfg.FromJSON(raw)
	if err != nil {
		log.Warn().Err(err).Str("var", EnvLaunchOptions).Msg("Ignoring invalid launch options from environment")
		return launchcfg.Config{}
	}
	return cfg
}

// AllowDangerous reports whether ALLOW_DANGEROUS is exactly "true"
func (e *Environment) AllowDangerous() bool {
	v, _ := e.lookup(EnvAllowDangerous)
	return v == "true"
}

// InContainer reports whether DOCKER_CONTAINER is set to any non-empty value
func (e *Environment) InContainer() bool {
	v, _ := e.lookup(EnvDockerContainer)
	return v != ""
}
