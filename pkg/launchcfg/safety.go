package launchcfg

import (
	"fmt"
	"strings"
)

// DangerousFlags weaken the browser's sandbox or its web security model.
var DangerousFlags = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--single-process",
	"--disable-web-security",
	"--ignore-certificate-errors",
	"--disable-features=IsolateOrigins",
	"--disable-site-isolation-trials",
	"--allow-running-insecure-content",
}

// SafetyViolation is returned when a configuration requests dangerous flags
// without an override.
type SafetyViolation struct {
	Flags []string
}

func (e *SafetyViolation) Error() string {
	return fmt.Sprintf(
		"Dangerous browser arguments detected: %s. Set allowDangerous: true in the tool call arguments or ALLOW_DANGEROUS=true in environment to override.",
		strings.Join(e.Flags, ", "),
	)
}

// FindDangerousFlags returns every entry of cfg["args"] that equals or starts
// with a dangerous flag, in configuration order.
func FindDangerousFlags(cfg Config) []string {
	list, ok := asList(cfg["args"])
	if !ok {
		return nil
	}

	var found []string
	for _, v := range list {
		arg, ok := v.(string)
		if !ok {
			continue
		}
		if IsDangerousFlag(arg) {
			found = append(found, arg)
		}
	}
	return found
}

// IsDangerousFlag reports whether arg equals or starts with a dangerous flag
func IsDangerousFlag(arg string) bool {
	for _, flag := range DangerousFlags {
		if strings.HasPrefix(arg, flag) {
			return true
		}
	}
	return false
}

// Validate rejects cfg when it carries dangerous flags and allowOverride is
// false.
func Validate(cfg Config, allowOverride bool) error {
	if allowOverride {
		return nil
	}
	if flags := FindDangerousFlags(cfg); len(flags) > 0 {
		return &SafetyViolation{Flags: flags}
	}
	return nil
}
