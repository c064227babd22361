package cli

import (
	"context"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile     string
	logLevel    string
	metricsAddr string
)

// rootCmd runs the MCP server when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "puppeteer-mcp",
	Short: "puppeteer-mcp - browser automation over the Model Context Protocol",
	Long: `puppeteer-mcp drives a headless or headed Chromium for AI agents.
It speaks MCP on stdin/stdout and exposes tools to navigate, click, fill,
select, hover, evaluate JavaScript and take screenshots. Screenshots and
the browser console are published as resources.

Launch options come from PUPPETEER_LAUNCH_OPTIONS and from the launchOptions
argument of each tool call. Options that weaken browser security are refused
unless allowDangerous or ALLOW_DANGEROUS=true is set.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, JSON or YAML (default is $HOME/.puppeteer-mcp/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
