package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/oedify/internal"
	pkgconfig "github.com/starford/oedify/pkg/config"
)

var version = "dev"

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil || cmd.IsSet("config") {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cmd.IsSet("input") {
		cfg.Source.Path = cmd.String("input")
	}
	if cmd.IsSet("output") {
		cfg.Output.Dir = cmd.String("output")
	}
	if cmd.IsSet("add-syns") {
		cfg.Convert.AddSynonyms = cmd.Bool("add-syns")
	}
	if cmd.IsSet("workers") {
		cfg.Convert.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("debug") {
		cfg.Convert.DebugWords = cmd.StringSlice("debug")
	}
	if cmd.IsSet("phonetic-mode") {
		cfg.Convert.PhoneticMode = cmd.String("phonetic-mode")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func action(run func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		return nil
	}
}

func main() {
	convertFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Path to the tab-separated dictionary source",
			Sources: cli.EnvVars("OEDIFY_INPUT"),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory for the exported tabfile",
			Sources: cli.EnvVars("OEDIFY_OUTPUT"),
		},
		&cli.BoolFlag{
			Name:  "add-syns",
			Usage: "Extract synonyms as extra search keys",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of conversion workers (0 selects NumCPU-1)",
		},
		&cli.StringSliceFlag{
			Name:  "debug",
			Usage: "Only convert the given headwords, logging every stage",
		},
		&cli.StringFlag{
			Name:  "phonetic-mode",
			Usage: `Pronunciation reclassing: "blockquote" or "color"`,
		},
	}

	cmd := &cli.Command{
		Name:    "oedify",
		Usage:   "Normalize legacy OED dictionary markup into classed HTML for offline readers",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Convert the source once and export the tabfile",
				Flags:  convertFlags,
				Action: action(internal.Convert),
			},
			{
				Name:   "serve",
				Usage:  "Serve the converted dictionary over HTTP and reconvert on source changes",
				Flags:  convertFlags,
				Action: action(internal.Run),
			},
			{
				Name:   "mcp",
				Usage:  "Serve dictionary lookup and preview tools over MCP stdio",
				Flags:  convertFlags,
				Action: action(internal.RunMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
