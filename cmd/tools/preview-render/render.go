package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"card-preview/internal/common/config"
	"card-preview/internal/common/database"
	"card-preview/internal/common/logger"
	"card-preview/internal/preview/assets"
	"card-preview/internal/preview/engine"
	"card-preview/internal/preview/server"
	"card-preview/pkg/registry"
)

type pipelineFlags struct {
	configPath   string
	sqlitePath   string
	builtinFonts bool
	verbose      bool
}

var pipeline pipelineFlags

var renderCmd = &cobra.Command{
	Use:   "render <identifier>",
	Short: "Render the PNG preview of a card",
	Long: `Render resolves a slug or custom domain and writes the 1200x630 PNG.

Examples:
  preview-render render jane-doe -o jane.png
  preview-render render janedoe.com --sqlite data/cards.db --builtin-fonts`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		srv, cleanup, err := buildServer()
		if err != nil {
			return err
		}
		defer cleanup()

		start := time.Now()
		res, err := srv.Service.Render(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if out == "" {
			out = res.Snapshot.Slug + ".png"
		}
		if err := os.WriteFile(out, res.Bitmap.PNG, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		success("%s rendered to %s (%d bytes, %s)", res.Snapshot.Slug, out, len(res.Bitmap.PNG), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var svgCmd = &cobra.Command{
	Use:   "svg <identifier>",
	Short: "Write the intermediate SVG document of a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		srv, cleanup, err := buildServer()
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := srv.Service.Layout(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		svg := res.Document.SVG()
		if out == "" || out == "-" {
			_, err = os.Stdout.Write(svg)
			return err
		}
		if err := os.WriteFile(out, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		success("%s written to %s", res.Snapshot.Slug, out)
		return nil
	},
}

var layoutCmd = &cobra.Command{
	Use:   "layout <identifier>",
	Short: "Print the snapshot and placed primitives of a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		srv, cleanup, err := buildServer()
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := srv.Service.Layout(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Snapshot)
		}

		fmt.Printf("%s %s\n", label("card"), res.Snapshot.ID)
		fmt.Printf("%s %s\n", label("slug"), res.Snapshot.Slug)
		fmt.Printf("%s %s\n", label("variant"), res.Snapshot.Variant())
		fmt.Printf("%s %d\n", label("engagement"), res.Snapshot.EngagementCount)
		fmt.Println()
		for _, p := range res.Document.Primitives {
			b := p.Bounds()
			switch v := p.(type) {
			case *engine.TextRun:
				fmt.Printf("%s text  %-16s %6.1f,%6.1f %6.1fx%-6.1f %q\n", label(""), v.Role, b.X, b.Y, b.W, b.H, v.Content)
			case *engine.Picture:
				fmt.Printf("%s image %-16s %6.1f,%6.1f %6.1fx%-6.1f\n", label(""), v.Role, b.X, b.Y, b.W, b.H)
			case *engine.Shape:
				fmt.Printf("%s shape %-16s %6.1f,%6.1f %6.1fx%-6.1f\n", label(""), v.Role, b.X, b.Y, b.W, b.H)
			}
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{renderCmd, svgCmd, layoutCmd} {
		c.Flags().StringVar(&pipeline.configPath, "config", "", "config file (defaults to configs/config.yaml)")
		c.Flags().StringVar(&pipeline.sqlitePath, "sqlite", "", "read cards from this SQLite file instead of the configured store")
		c.Flags().BoolVar(&pipeline.builtinFonts, "builtin-fonts", false, "use the bundled Go fonts instead of downloading")
		c.Flags().BoolVarP(&pipeline.verbose, "verbose", "v", false, "log pipeline stages")
	}
	renderCmd.Flags().StringP("output", "o", "", "output file (defaults to <slug>.png)")
	svgCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")
	layoutCmd.Flags().Bool("json", false, "print the snapshot as JSON")
}

// buildServer wires the same pipeline the HTTP server runs.
func buildServer() (*server.Server, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case pipeline.configPath != "":
		cfg, err = config.LoadFromFile(pipeline.configPath)
	case pipeline.sqlitePath != "":
		cfg = config.Default()
	default:
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if pipeline.sqlitePath != "" {
		cfg.Database.Driver = database.DriverSQLite
		cfg.Database.SQLite.Path = pipeline.sqlitePath
	}

	sqlClient, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if pipeline.verbose {
		level = "debug"
	}
	zapLog := logger.NewWithOptions(logger.Options{Level: level, Format: "console", Output: "stderr"})

	deps := server.Dependencies{SQL: sqlClient}
	if pipeline.builtinFonts {
		fonts, err := assets.BuiltinFontSet()
		if err != nil {
			sqlClient.Close()
			return nil, nil, err
		}
		deps.Fonts = fonts
	} else if path := cfg.Assets.RegistryPath; path != "" {
		if deps.Registry, err = registry.LoadRegistry(path); err != nil {
			sqlClient.Close()
			return nil, nil, err
		}
	}

	srv, err := server.New(cfg, deps, logger.NewZapAdapter(zapLog))
	if err != nil {
		sqlClient.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = zapLog.Sync()
		sqlClient.Close()
	}
	return srv, cleanup, nil
}
