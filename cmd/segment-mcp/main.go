package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ironsheep/segment-mcp/internal/imaging"
	"github.com/ironsheep/segment-mcp/internal/logging"
	"github.com/ironsheep/segment-mcp/internal/quickshift"
	"github.com/ironsheep/segment-mcp/internal/server"
	"github.com/ironsheep/segment-mcp/internal/workspace"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	flagLogLevel   = "log-level"
	flagKernelSize = "kernel-size"
	flagMaxDist    = "max-dist"
	flagRatio      = "ratio"
	flagSeed       = "seed"
	flagThreshold  = "threshold"
	flagPasses     = "passes"
	flagDenoiser   = "denoiser"
	flagStrength   = "strength"
	flagStage      = "stage"
	flagMode       = "mode"
)

func envVar(name string) []string {
	return []string{"SEGMENT_MCP_" + name}
}

func newApp() *cli.App {
	defaults := workspace.DefaultConfig()
	return &cli.App{
		Name:    "segment-mcp",
		Usage:   "MCP server for quickshift image segmentation",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Description: "Without a command the server speaks the MCP protocol over stdin/stdout.\n" +
			"Configure it in your MCP client (e.g., Claude Desktop).",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				Usage:   "log level (debug, info, warn, error); logs go to stderr",
				EnvVars: envVar("LOG_LEVEL"),
			},
			&cli.Float64Flag{
				Name:    flagKernelSize,
				Value:   defaults.Params.KernelSize,
				Usage:   "quickshift Gaussian kernel standard deviation",
				EnvVars: envVar("KERNEL_SIZE"),
			},
			&cli.Float64Flag{
				Name:    flagMaxDist,
				Value:   defaults.Params.MaxDist,
				Usage:   "longest link kept between a pixel and its parent",
				EnvVars: envVar("MAX_DIST"),
			},
			&cli.Float64Flag{
				Name:    flagRatio,
				Value:   defaults.Params.Ratio,
				Usage:   "weight of color against position",
				EnvVars: envVar("RATIO"),
			},
			&cli.Int64Flag{
				Name:    flagSeed,
				Value:   defaults.Params.Seed,
				Usage:   "seed for tie-break noise",
				EnvVars: envVar("SEED"),
			},
			&cli.Float64Flag{
				Name:    flagThreshold,
				Value:   defaults.Threshold,
				Usage:   "mean color distance below which adjacent segments merge",
				EnvVars: envVar("THRESHOLD"),
			},
			&cli.IntFlag{
				Name:    flagPasses,
				Value:   defaults.Passes,
				Usage:   "merge sweeps; 0 repeats until nothing merges",
				EnvVars: envVar("PASSES"),
			},
			&cli.StringFlag{
				Name:    flagDenoiser,
				Value:   "none",
				Usage:   "denoiser applied before segmentation (none, gaussian, median)",
				EnvVars: envVar("DENOISER"),
			},
			&cli.Float64Flag{
				Name:    flagStrength,
				Value:   1,
				Usage:   "denoiser sigma or radius in pixels",
				EnvVars: envVar("STRENGTH"),
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:      "segment",
				Usage:     "segment an image file and write the result",
				ArgsUsage: "<input> <output>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagStage,
						Value: workspace.StageMerged.String(),
						Usage: "stage to write (quickshift, merged, manual)",
					},
					&cli.StringFlag{
						Name:  flagMode,
						Value: "boundaries",
						Usage: "rendering (boundaries, labels)",
					},
				},
				Action: segmentAction,
			},
		},
	}
}

// configFromFlags builds the workspace defaults from the global flags.
func configFromFlags(c *cli.Context) (workspace.Config, error) {
	d, err := imaging.NewDenoiser(c.String(flagDenoiser), c.Float64(flagStrength))
	if err != nil {
		return workspace.Config{}, err
	}
	cfg := workspace.Config{
		Params: quickshift.Params{
			KernelSize: c.Float64(flagKernelSize),
			MaxDist:    c.Float64(flagMaxDist),
			Ratio:      c.Float64(flagRatio),
			Seed:       c.Int64(flagSeed),
		},
		Threshold: c.Float64(flagThreshold),
		Passes:    c.Int(flagPasses),
		Denoiser:  d,
	}
	if err := cfg.Params.Validate(); err != nil {
		return workspace.Config{}, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context) zerolog.Logger {
	return logging.New(c.String(flagLogLevel), c.App.ErrWriter)
}

func serveAction(c *cli.Context) error {
	if c.Args().Present() {
		return cli.Exit(fmt.Sprintf("unknown command %q", c.Args().First()), 2)
	}
	cfg, err := configFromFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger := newLogger(c)
	logger.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("segment-mcp starting")

	srv := server.New(server.WithConfig(cfg), server.WithLogger(logger))
	if err := srv.Run(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "server")
	}
	return nil
}

func segmentAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("segment needs an input and an output path", 2)
	}
	input, output := c.Args().Get(0), c.Args().Get(1)
	mode := c.String(flagMode)
	if mode != "boundaries" && mode != "labels" {
		return cli.Exit(fmt.Sprintf("unknown mode %q", mode), 2)
	}

	cfg, err := configFromFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	stage, err := workspace.ParseStage(c.String(flagStage))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger := newLogger(c)
	ctx := logger.WithContext(c.Context)

	img, err := imaging.NewImageCache().Load(input)
	if err != nil {
		return err
	}
	ws, err := workspace.New(img, workspace.WithConfig(cfg))
	if err != nil {
		return err
	}
	ws.Denoise()
	if _, err := ws.Segment(ctx, nil, cfg.Params); err != nil {
		return err
	}
	if _, err := ws.Merge(ctx, nil, cfg.Threshold, cfg.Passes); err != nil {
		return err
	}
	if err := ws.Promote(nil); err != nil {
		return err
	}

	lbl, err := ws.Labels(stage)
	if err != nil {
		return err
	}
	if err := writeStage(ws, lbl, mode, output); err != nil {
		return err
	}
	count, err := ws.SegmentCount(stage)
	if err != nil {
		return err
	}
	logger.Info().Str("output", output).Str("stage", stage.String()).Int("segments", count).Msg("segmentation written")
	return nil
}

// writeStage renders lbl in mode and saves it to output.
func writeStage(ws *workspace.Workspace, lbl []int, mode, output string) error {
	var (
		out *image.NRGBA
		err error
	)
	switch mode {
	case "boundaries":
		out, err = imaging.RenderBoundaries(ws.Base(), lbl, color.RGBA{255, 255, 0, 255})
	case "labels":
		out, err = imaging.RenderLabels(lbl, ws.Width(), ws.Height())
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}
	return imaging.Save(output, out)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "segment-mcp: %v\n", err)
		os.Exit(1)
	}
}
