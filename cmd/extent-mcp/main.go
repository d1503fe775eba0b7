package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ironsheep/extent-mcp/internal/config"
	"github.com/ironsheep/extent-mcp/internal/imaging"
	"github.com/ironsheep/extent-mcp/internal/logging"
	"github.com/ironsheep/extent-mcp/internal/segment"
	"github.com/ironsheep/extent-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	flagConfig     = "config"
	flagLogLevel   = "log-level"
	flagIterations = "iterations"
	flagOverlay    = "overlay"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "extent-mcp %s\n", Version)
		fmt.Fprintf(c.App.Writer, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(c.App.Writer, "  Git commit: %s\n", GitCommit)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env holds what Before sets up for the actions.
type env struct {
	cfg    segment.Config
	logger *zap.SugaredLogger
}

func newApp() *cli.App {
	e := &env{}

	return &cli.App{
		Name:    "extent-mcp",
		Usage:   "MCP server that detects an object by color and measures its height",
		Version: Version,
		Description: "Without a command the server communicates via MCP protocol over stdin/stdout.\n" +
			"Configure it in your MCP client (e.g., Claude Desktop).",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				EnvVars: []string{config.PathEnv},
				Usage:   "load pipeline settings from YAML `FILE`",
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				EnvVars: []string{logging.LevelEnv},
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := logging.NewLogger("extent-mcp", c.String(flagLogLevel))
			if err != nil {
				return err
			}
			cfg, err := config.Load(c.String(flagConfig))
			if err != nil {
				return err
			}
			e.logger, e.cfg = logger, cfg
			return nil
		},
		After: func(c *cli.Context) error {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
			return nil
		},
		Action: e.serve,
		Commands: []*cli.Command{
			{
				Name:      "measure",
				Usage:     "detect, segment and measure the object in one image and print JSON",
				ArgsUsage: "<image>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagIterations,
						Usage: "segmentation iterations (0 uses the configured value)",
					},
					&cli.StringFlag{
						Name:  flagOverlay,
						Usage: "write the annotated frame to `FILE`",
					},
				},
				Action: e.measure,
			},
		},
	}
}

func (e *env) serve(c *cli.Context) error {
	e.logger.Debugw("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv, err := server.New(e.cfg, Version, e.logger.Named("server"))
	if err != nil {
		return err
	}
	return srv.Run(c.App.Reader, c.App.Writer)
}

// measureResult is printed by the measure command. The extent is only set
// once every stage succeeded.
type measureResult struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Path    string  `json:"path"`
	Area    float64 `json:"region_area,omitempty"`
	*segment.Extent
}

func (e *env) measure(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("measure takes exactly one image path", 2)
	}
	path := c.Args().First()

	res, err := e.runMeasure(path, c.Int(flagIterations), c.String(flagOverlay))
	if err != nil && !segment.Recoverable(err) {
		return err
	}
	if err := writeJSON(c.App.Writer, res); err != nil {
		return err
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", res.Status, err), 1)
	}
	return nil
}

// runMeasure runs every stage on one frame. A stage failure is returned
// together with a result carrying its status.
func (e *env) runMeasure(path string, iterations int, overlayPath string) (*measureResult, error) {
	res := &measureResult{Path: path}
	fail := func(err error) (*measureResult, error) {
		res.Status = segment.Kind(err)
		res.Message = err.Error()
		return res, err
	}

	frame, err := imaging.LoadFrame(path)
	if err != nil {
		return nil, err
	}
	d, err := segment.NewDetector(e.cfg, e.logger.Named("segment"))
	if err != nil {
		return nil, err
	}

	region, err := d.DetectRegion(frame.Color, frame.HSV)
	if err != nil {
		return fail(err)
	}
	res.Area = region.Area

	mask, err := d.Segment(frame.Color, region.Mask, iterations)
	if err != nil {
		return fail(err)
	}
	extent, err := d.Measure(mask)
	if err != nil {
		return fail(err)
	}
	res.Status = segment.StatusOK
	res.Extent = &extent

	if overlayPath != "" {
		annotated := imaging.DrawHull(frame.Image, region.Expanded, imaging.HullColor, imaging.OverlayThickness)
		annotated = imaging.DrawExtent(annotated, extent)
		if err := imaging.SavePNG(annotated, overlayPath); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
