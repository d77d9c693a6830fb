// Command multitabrec records live browser tabs and re-encodes crop
// selections from the recordings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/chromecapture"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/filesink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/logger"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/mjpegsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/nullsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/osfilesystem"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/playwrightcapture"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/preview"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartbackend"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartsink"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/adapters/smartsource"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/config"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/framecache"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/pipeline"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/ports"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/session"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/stages/geometry"
	"github.com/Omaiirr-Dev/Multitabrecorder/pkg/stages/record"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	app := &cli.App{
		Name:    "multitabrec",
		Usage:   "record browser tabs and crop re-encode the recordings",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress all output"},
		},
		Commands: []*cli.Command{
			recordCommand(),
			cropCommand(),
			previewCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig merges defaults, an optional config file and global flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Defaults(), nil
}

func buildLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	level := ports.LevelInfo
	if c.Bool("verbose") {
		level = ports.LevelDebug
	}
	return logger.NewConsole(level)
}

func buildDebugSink(cfg config.Config, fs ports.FileSystem) ports.DebugSink {
	if cfg.Debug {
		return filesink.New(cfg.DebugDir, fs)
	}
	return nullsink.New()
}

// signalContext cancels on SIGINT/SIGTERM so both commands shut down cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:      "record",
		Usage:     "record one or more tabs into MP4 files",
		ArgsUsage: "URL [URL...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Value: ".", Usage: "directory for recordings"},
			&cli.IntFlag{Name: "width", Usage: "viewport width"},
			&cli.IntFlag{Name: "height", Usage: "viewport height"},
			&cli.IntFlag{Name: "duration", Usage: "recording length in milliseconds"},
			&cli.Float64Flag{Name: "fps", Usage: "target frame rate"},
			&cli.IntFlag{Name: "quality", Usage: "JPEG quality (0-100)"},
			&cli.BoolFlag{Name: "headed", Usage: "show the browser window"},
			&cli.StringFlag{Name: "engine", Usage: "capture engine: chrome or playwright"},
			&cli.StringFlag{Name: "chrome-path", Usage: "path to the Chrome executable"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			urls := c.Args().Slice()
			if len(urls) == 0 {
				urls = cfg.URLs
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given")
			}

			applyRecordFlags(c, &cfg)

			log := buildLogger(c)
			fs := osfilesystem.New()
			debug := buildDebugSink(cfg, fs)

			input := pipeline.DefaultRecordInput()
			input.URLs = urls
			input.ViewportWidth = cfg.ViewportWidth
			input.ViewportHeight = cfg.ViewportHeight
			input.FPS = cfg.FPS
			input.Quality = cfg.Quality
			input.DurationMs = cfg.DurationMs
			input.Headless = cfg.Headless

			stage := record.New(
				capturerFactory(cfg),
				func() (ports.EncodeSink, error) { return mjpegsink.New(), nil },
				debug, log,
				ports.CaptureOptions{BrowserPath: cfg.ChromePath, UserAgent: cfg.UserAgent},
			)

			ctx, cancel := signalContext()
			defer cancel()

			result, err := stage.Execute(ctx, input)
			if err != nil {
				return err
			}

			for i, tab := range result.Tabs {
				path := filepath.Join(c.String("output-dir"), fmt.Sprintf("tab-%02d.mp4", i+1))
				if err := fs.WriteFile(path, tab.Data); err != nil {
					log.Error("Failed to write output: %s", err)
					return err
				}
				log.Info("Output saved to %s", path)
			}
			return nil
		},
	}
}

func applyRecordFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("width") {
		cfg.ViewportWidth = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.ViewportHeight = c.Int("height")
	}
	if c.IsSet("duration") {
		cfg.DurationMs = c.Int("duration")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.Bool("headed") {
		cfg.Headless = false
	}
	if c.IsSet("engine") {
		cfg.Engine = c.String("engine")
	}
	if c.IsSet("chrome-path") {
		cfg.ChromePath = c.String("chrome-path")
	}
}

func capturerFactory(cfg config.Config) record.CapturerFactory {
	if cfg.Engine == "playwright" {
		return func() ports.ScreenCapturer { return playwrightcapture.New() }
	}
	return func() ports.ScreenCapturer { return chromecapture.New() }
}

func cropFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "x", Usage: "selection left edge in display pixels"},
		&cli.Float64Flag{Name: "y", Usage: "selection top edge in display pixels"},
		&cli.Float64Flag{Name: "w", Usage: "selection width in display pixels"},
		&cli.Float64Flag{Name: "h", Usage: "selection height in display pixels"},
		&cli.Float64Flag{Name: "display-width", Usage: "display bounding box width"},
		&cli.Float64Flag{Name: "display-height", Usage: "display bounding box height"},
		&cli.Float64Flag{Name: "aspect-ratio", Usage: "lock width/height ratio, 0 for free-form"},
	}
}

func cropConfigFrom(c *cli.Context, cfg *config.Config) {
	if c.IsSet("x") {
		cfg.Crop.X = c.Float64("x")
	}
	if c.IsSet("y") {
		cfg.Crop.Y = c.Float64("y")
	}
	if c.IsSet("w") {
		cfg.Crop.Width = c.Float64("w")
	}
	if c.IsSet("h") {
		cfg.Crop.Height = c.Float64("h")
	}
	if c.IsSet("display-width") {
		cfg.Crop.DisplayWidth = c.Float64("display-width")
	}
	if c.IsSet("display-height") {
		cfg.Crop.DisplayHeight = c.Float64("display-height")
	}
	if c.IsSet("aspect-ratio") {
		cfg.Crop.AspectRatio = c.Float64("aspect-ratio")
	}
}

func cropCommand() *cli.Command {
	return &cli.Command{
		Name:      "crop",
		Usage:     "re-encode a crop selection from a recording",
		ArgsUsage: "INPUT",
		Flags: append(cropFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "cropped.mp4", Usage: "output file"},
			&cli.Float64Flag{Name: "fps", Usage: "target frame rate"},
			&cli.IntFlag{Name: "quality", Usage: "encode quality (0-100)"},
			&cli.IntFlag{Name: "bitrate", Usage: "target bitrate in kbps"},
			&cli.StringSliceFlag{Name: "codec", Usage: "codec preference order"},
			&cli.StringFlag{Name: "backend", Usage: "transform backend: auto or cpu"},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: "path to the ffmpeg executable"},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one input file")
			}
			cropConfigFrom(c, &cfg)
			if c.IsSet("fps") {
				cfg.FPS = c.Float64("fps")
			}
			if c.IsSet("quality") {
				cfg.Quality = c.Int("quality")
			}
			if c.IsSet("bitrate") {
				cfg.Bitrate = c.Int("bitrate")
			}
			if codecs := c.StringSlice("codec"); len(codecs) > 0 {
				cfg.Codecs = codecs
			}
			if c.IsSet("backend") {
				cfg.Backend = c.String("backend")
			}
			if c.IsSet("ffmpeg-path") {
				cfg.FFmpegPath = c.String("ffmpeg-path")
			}

			log := buildLogger(c)
			fs := osfilesystem.New()
			debug := buildDebugSink(cfg, fs)

			backend := session.BackendSelector(smartbackend.Default)
			if cfg.Backend == "cpu" {
				backend = func(ports.Logger) (ports.TransformBackend, smartbackend.Info) {
					return smartbackend.CPUOnly()
				}
			}

			manager := session.NewManager(session.Deps{
				Negotiate: func(prefs []string, log ports.Logger) (ports.EncodeSink, smartsink.Info, error) {
					return smartsink.Negotiate(prefs, smartsink.Options{
						FFmpegPath: cfg.FFmpegPath,
						Logger:     log,
					})
				},
				Backend: backend,
				Cache:   framecache.New(cfg.CacheFrames),
				Debug:   debug,
			}, log)

			ctx, cancel := signalContext()
			defer cancel()

			result, err := manager.Run(ctx, session.Config{
				InputPath: c.Args().First(),
				Selection: pipeline.DisplayRect{
					X: cfg.Crop.X, Y: cfg.Crop.Y,
					Width: cfg.Crop.Width, Height: cfg.Crop.Height,
				},
				DisplayWidth:     cfg.Crop.DisplayWidth,
				DisplayHeight:    cfg.Crop.DisplayHeight,
				AspectRatio:      cfg.Crop.AspectRatio,
				FPS:              cfg.FPS,
				Quality:          cfg.Quality,
				Bitrate:          cfg.Bitrate,
				CodecPreferences: cfg.Codecs,
			})
			if err != nil {
				return err
			}

			path := c.String("output")
			if err := fs.WriteFile(path, result.Data); err != nil {
				log.Error("Failed to write output: %s", err)
				return err
			}
			log.Info("Output saved to %s", path)
			return nil
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "render a poster image with the crop marker",
		ArgsUsage: "INPUT",
		Flags: append(cropFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "preview.png", Usage: "output PNG file"},
		),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one input file")
			}
			cropConfigFrom(c, &cfg)

			log := buildLogger(c)
			fs := osfilesystem.New()

			ctx, cancel := signalContext()
			defer cancel()

			source, _, err := smartsource.Open(ctx, c.Args().First())
			if err != nil {
				return err
			}
			defer source.Close()

			frame, err := source.Next()
			if err != nil {
				return fmt.Errorf("read poster frame: %w", err)
			}

			width, height := source.Bounds()
			crop, err := geometry.NewStage().Execute(ctx, pipeline.GeometryInput{
				Selection: pipeline.DisplayRect{
					X: cfg.Crop.X, Y: cfg.Crop.Y,
					Width: cfg.Crop.Width, Height: cfg.Crop.Height,
				},
				DisplayWidth:  cfg.Crop.DisplayWidth,
				DisplayHeight: cfg.Crop.DisplayHeight,
				SourceWidth:   width,
				SourceHeight:  height,
				AspectRatio:   cfg.Crop.AspectRatio,
			})
			if err != nil {
				return err
			}

			data, err := preview.EncodePNG(frame.Image, crop, preview.DefaultOptions())
			if err != nil {
				return err
			}

			path := c.String("output")
			if err := fs.WriteFile(path, data); err != nil {
				log.Error("Failed to write output: %s", err)
				return err
			}
			log.Info("Output saved to %s", path)
			return nil
		},
	}
}
