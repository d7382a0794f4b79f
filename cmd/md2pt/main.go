package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/derickschaefer/go-portabletext/config"
	"github.com/derickschaefer/go-portabletext/markdown"
)

var version = "dev"

// initializeAppContext loads configuration and builds the logger after the
// command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if env.Log, err = env.Cfg.Logging.Prepare(cmd.Bool("debug")); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.redirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.restoreLog()
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	envFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

const inputHelp = `
SOURCE:
    markdown file (.md, .markdown) or Portable Text JSON file, "-" for STDIN (markdown)
`

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            config.AppName,
		Usage:           "converts markdown to Portable Text and inspects Portable Text documents",
		Version:         version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level"},
		},
		Commands: []*cli.Command{
			{
				Name:         "convert",
				Usage:        "Converts markdown file(s) to Portable Text JSON",
				OnUsageError: usageErrorHandler,
				Action:       runConvert,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keys", Usage: "override key generator `NAME` (counter, uuid, random)"},
					&cli.StringSliceFlag{Name: "ext", Usage: "markdown parser `EXTENSION` (" + strings.Join(markdown.ExtensionNames(), ", ") + ")"},
					&cli.BoolFlag{Name: "indent", Aliases: []string{"i"}, Usage: "indent JSON output"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite existing destination files"},
				},
				ArgsUsage: "SOURCE... [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    markdown file(s) to convert, "-" for STDIN

DESTINATION:
    directory for output files; names are derived from source names
    if absent - STDOUT (single source only)
`, cli.CommandHelpTemplate),
			},
			{
				Name:               "text",
				Usage:              "Prints the plain text of a document",
				OnUsageError:       usageErrorHandler,
				Action:             runText,
				ArgsUsage:          "SOURCE",
				CustomHelpTemplate: cli.CommandHelpTemplate + inputHelp,
			},
			{
				Name:               "links",
				Usage:              "Lists link and image annotations of a document",
				OnUsageError:       usageErrorHandler,
				Action:             runLinks,
				ArgsUsage:          "SOURCE",
				CustomHelpTemplate: cli.CommandHelpTemplate + inputHelp,
			},
			{
				Name:         "toc",
				Usage:        "Prints the table of contents of a document",
				OnUsageError: usageErrorHandler,
				Action:       runTOC,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-level", Aliases: []string{"l"}, Value: 6, Usage: "deepest heading `LEVEL` to include"},
				},
				ArgsUsage:          "SOURCE",
				CustomHelpTemplate: cli.CommandHelpTemplate + inputHelp,
			},
			{
				Name:         "validate",
				Usage:        "Validates a document",
				OnUsageError: usageErrorHandler,
				Action:       runValidate,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "require-keys", Usage: "require _key on every block"},
					&cli.BoolFlag{Name: "allow-empty-text", Usage: "accept spans with empty text"},
					&cli.BoolFlag{Name: "no-refs", Usage: "do not check that marks reference existing mark definitions"},
				},
				ArgsUsage:          "SOURCE",
				CustomHelpTemplate: cli.CommandHelpTemplate + inputHelp,
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s
DESTINATION:
    file name to write configuration to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// os.Exit is called at the end of main, keep deferred calls above it
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
