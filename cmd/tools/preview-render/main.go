// cmd/tools/preview-render/main.go
package main

import (
	"fmt"
	"os"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "preview-render",
	Short: "Render card previews and manage the font registry offline",
	Long: `preview-render runs the social-preview pipeline against the configured
card store without starting the HTTP server. It writes PNG or SVG output,
prints the resolved layout, and maintains the font registry file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(renderCmd, svgCmd, layoutCmd, fontsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorize.New(colorize.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func success(format string, args ...interface{}) {
	colorize.New(colorize.FgGreen).Printf("✓ "+format+"\n", args...)
}

func label(name string) string {
	return colorize.New(colorize.Bold).Sprint(fmt.Sprintf("%-12s", name))
}
