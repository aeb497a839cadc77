package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	// Root flags (apply to every subcommand)
	flags := pflag.NewFlagSet("tada", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	groupPending := flags.Bool("group", false, "group output by pending/done")
	configPath := flags.String("config", os.Getenv("TADA_CONFIG"), "YAML config file (env vars still win)")
	forceColor := flags.Bool("color", false, "force colored output")
	noColor := flags.Bool("no-color", false, "disable colored output")
	theme := flags.String("theme", "", "classic, neon or mono (default $TADA_THEME)")
	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.Fail(os.Stderr, "config: "+err.Error())
		return 1
	}

	if *theme == "" {
		*theme = cfg.UI.Theme
	}
	ui.SetTheme(*theme)
	ui.SetColorForcing(*forceColor, *noColor)

	// Hand the remaining args to the CLI runner.
	args := flags.Args()

	// The TUI owns the terminal and prod output stays clean: both only log
	// to TADA_LOG_FILE.
	var logOut io.Writer = os.Stderr
	if cfg.Env == config.EnvProd || (len(args) > 0 && args[0] == "tui") {
		logOut = nil
	}
	logger, closer, err := logging.Open(cfg, logOut)
	if err != nil {
		ui.Fail(os.Stderr, "log: "+err.Error())
		return 1
	}
	defer closer.Close()

	credDir := cfg.Home
	if credDir == "" {
		if credDir, err = auth.DefaultDir(); err != nil {
			ui.Fail(os.Stderr, err.Error())
			return 1
		}
	}
	creds := auth.NewStore(credDir, cfg.Token, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Config: cfg,
		Logger: logger,
		Creds:  creds,
		NewGateway: func() cli.Gateway {
			return api.NewClient(cfg.API.URL, creds,
				api.WithTimeout(cfg.API.Timeout),
				api.WithUnauthorizedHook(creds.Invalidate),
				api.WithLogger(logger),
			)
		},
		ReadPassword: func() (string, error) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			return string(b), err
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	code := app.Run(ctx, args, cli.Options{
		Group: *groupPending,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
