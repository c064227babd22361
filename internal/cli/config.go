package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tcschm/puppeteer-mcp/internal/config"
	"github.com/tcschm/puppeteer-mcp/pkg/browser"
	"github.com/tcschm/puppeteer-mcp/pkg/launchcfg"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective server configuration and the base browser launch
configuration (built-in defaults merged with PUPPETEER_LAUNCH_OPTIONS) as YAML.
Per-call launchOptions are merged on top of the base at call time.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// effectiveConfig is what the config command prints
type effectiveConfig struct {
	Server  *config.Config `yaml:"server"`
	Browser browserView    `yaml:"browser"`
}

type browserView struct {
	LaunchOptions  launchcfg.Config `yaml:"launch_options"`
	InContainer    bool             `yaml:"in_container"`
	AllowDangerous bool             `yaml:"allow_dangerous"`
	DangerousFlags []string         `yaml:"dangerous_flags,omitempty"`
	Blocked        bool             `yaml:"blocked"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return writeEffectiveConfig(cmd.OutOrStdout(), cfg, config.NewEnvironment())
}

func writeEffectiveConfig(w io.Writer, cfg *config.Config, env browser.EnvSource) error {
	user := env.LaunchOptions()
	flags := launchcfg.FindDangerousFlags(user)

	view := effectiveConfig{
		Server: cfg,
		Browser: browserView{
			LaunchOptions:  launchcfg.MergeConfig(launchcfg.Defaults(env.InContainer()), user),
			InContainer:    env.InContainer(),
			AllowDangerous: env.AllowDangerous(),
			DangerousFlags: flags,
			Blocked:        len(flags) > 0 && !env.AllowDangerous(),
		},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
