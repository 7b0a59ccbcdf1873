package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"card-preview/pkg/registry"
)

var registryPath string

var fontsCmd = &cobra.Command{
	Use:   "fonts",
	Short: "Inspect and edit the font registry",
}

var fontsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered font files",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadOrDefault(registryPath)
		if err != nil {
			return err
		}
		for _, f := range reg.Fonts {
			fmt.Printf("%s %-4d %-6s %s\n", label(f.Family), f.Weight, f.Format, f.URL)
		}
		return nil
	},
}

var fontsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		success("registry valid, %d fonts", len(reg.Fonts))
		return nil
	},
}

var fontsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a font file",
	Long: `Add appends one face to the registry, creating the file from the
compiled-in defaults when it does not exist yet.

Example:
  preview-render fonts add --family Inter --weight 600 --url https://fonts.internal/inter-600.ttf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		family, _ := cmd.Flags().GetString("family")
		weight, _ := cmd.Flags().GetInt("weight")
		url, _ := cmd.Flags().GetString("url")
		format, _ := cmd.Flags().GetString("format")

		reg, err := loadOrDefault(registryPath)
		if err != nil {
			return err
		}
		if err := reg.Add(registry.FontSource{Family: family, Weight: weight, Style: "normal", URL: url, Format: format}); err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		if err := registry.SaveRegistry(reg, registryPath); err != nil {
			return err
		}
		success("added %s/%d to %s", family, weight, registryPath)
		return nil
	},
}

func init() {
	fontsCmd.PersistentFlags().StringVar(&registryPath, "path", "configs/font-registry.json", "path to the registry file")
	fontsCmd.AddCommand(fontsListCmd, fontsValidateCmd, fontsAddCmd)

	fontsAddCmd.Flags().String("family", "", "font family (required)")
	fontsAddCmd.Flags().Int("weight", registry.WeightRegular, "font weight, 100-900")
	fontsAddCmd.Flags().String("url", "", "http(s) URL of the font file (required)")
	fontsAddCmd.Flags().String("format", "ttf", "ttf or otf")
	_ = fontsAddCmd.MarkFlagRequired("family")
	_ = fontsAddCmd.MarkFlagRequired("url")
}

func loadOrDefault(path string) (*registry.FontRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if os.IsNotExist(err) {
		return registry.Default(), nil
	}
	return reg, err
}
