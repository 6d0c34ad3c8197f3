package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "intercept",
	Short: "intercept is a request-interception proxy for mocked HTTP APIs",
	Long: `intercept answers your application's HTTP requests with configured mock
responses and passes everything else through to the real network.

Routes, passthrough rules, and match predicates live in intercept.yaml.
Run 'intercept init' to scaffold one, then 'intercept serve' to start.`,
	// No Run function here means 'intercept' with no args will print help text by default.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(Main())
}

// Main runs the root command and returns the process exit code. Script
// tests drive the CLI through this entry point instead of Execute.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
