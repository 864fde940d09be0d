package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗┬┌─┐┌─┐┬  ┌─┐
  ╠╦╝│├─┘├─┘│  ├┤
  ╩╚═┴┴  ┴  ┴─┘└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripple",
		Short: "Reactive state runtime with a live WebSocket host",
		Long: `Ripple is a reactive state runtime for Go.

Observe plain data, watch derived values, and let the batched
scheduler re-run only what changed. The built-in server hosts a
session per WebSocket connection and streams binding patches
whenever state settles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Ripple ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
