// Command botreplay converts a cellbot simulation log into renderer keyframes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cellbots/replay/internal/config"
	"github.com/cellbots/replay/internal/parser"
	"github.com/spf13/pflag"
)

// BuildVersion and BuildDate can be set at build time via ldflags.
var (
	BuildVersion string = "0.1.0"
	BuildDate    string = "unknown"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"logsDir":                  "logs-dir",
	"logLevel":                 "log-level",
	"timing.frameRate":         "frame-rate",
	"timing.frameOrigin":       "frame-origin",
	"router.orbitSteps":        "orbit-steps",
	"storage.type":             "storage",
	"storage.memory.outputDir": "output-dir",
	"preview.enabled":          "preview",
	"api.upload":               "upload",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("botreplay", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: botreplay [flags] <logfile>")
		flags.PrintDefaults()
	}

	flags.String("config-dir", ".", "directory holding "+config.FileName)
	flags.String("logs-dir", "./logs", "directory for per-run log files, empty for console only")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Float64("frame-rate", 24, "renderer frames per second")
	flags.Int("frame-origin", 1, "frame number of t=0")
	flags.Int("orbit-steps", 8, "keyframes per orbital rotation")
	flags.String("storage", "memory", "storage backend (memory, sqlite, postgres, websocket)")
	flags.String("output-dir", "./exports", "export directory of the memory backend")
	flags.Bool("preview", false, "render trajectory preview PNGs")
	flags.Bool("upload", false, "upload the export to the configured server")
	flags.Bool("version", false, "print version and exit")
	return flags
}

// run executes one conversion and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := newFlagSet(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if v, _ := flags.GetBool("version"); v {
		fmt.Fprintf(stdout, "botreplay %s (built %s)\n", BuildVersion, BuildDate)
		return exitOK
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return exitUsage
	}
	logPath := flags.Arg(0)

	configDir, _ := flags.GetString("config-dir")
	if err := config.Load(configDir); err != nil {
		fmt.Fprintf(stderr, "botreplay: %v\n", err)
		return exitFailure
	}
	if err := config.BindFlags(flags, flagKeys); err != nil {
		fmt.Fprintf(stderr, "botreplay: %v\n", err)
		return exitUsage
	}

	res, err := convert(ctx, logPath)
	if err != nil {
		var mie *parser.MalformedInputError
		if errors.As(err, &mie) && mie.Path() != "" {
			fmt.Fprintf(stderr, "botreplay: %s: invalid field %s: %s\n", logPath, mie.Path(), mie.Reason)
		} else {
			fmt.Fprintf(stderr, "botreplay: %v\n", err)
		}
		return exitFailure
	}

	res.print(stdout)
	return exitOK
}
