// Package cli implements the one-shot subcommands of tada.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/tasksync"
	"github.com/idilsaglam/tada/internal/ui"
)

// Options tune output behavior from root flags.
type Options struct {
	Group bool // list grouped by pending/done
}

// Gateway is the remote side as the CLI uses it.
type Gateway interface {
	tasksync.Gateway
	Login(ctx context.Context, email, password string) (string, error)
}

// App carries everything a subcommand needs.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Creds  *auth.Store

	// NewGateway is called once per command that talks to the server.
	NewGateway func() Gateway
	// ReadPassword reads a secret without echo.
	ReadPassword func() (string, error)

	Stdin          io.Reader
	Stdout, Stderr io.Writer
	Now            func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func (a *App) Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		a.PrintHelp()
		return 2
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		a.PrintHelp()
		return 0
	case "ls":
		return a.doList(ctx, rest, opt)
	case "tui":
		return a.doTUI(ctx, rest)
	case "add":
		return a.doAdd(ctx, rest)
	case "done":
		return a.doToggle(ctx, rest)
	case "edit":
		return a.doEdit(ctx, rest)
	case "rm":
		return a.doRemove(ctx, rest)
	case "export":
		return a.doExport(ctx, rest)
	case "auth":
		if len(rest) == 0 {
			ui.Fail(a.Stderr, "usage: tada auth <login|logout|status|whoami>")
			return 2
		}
		switch rest[0] {
		case "login":
			return a.doAuthLogin(ctx, rest[1:])
		case "logout":
			return a.doAuthLogout()
		case "status":
			return a.doAuthStatus()
		case "whoami":
			return a.doAuthWhoAmI()
		default:
			ui.Fail(a.Stderr, "usage: tada auth <login|logout|status|whoami>")
			return 2
		}
	}

	ui.Fail(a.Stderr, "unknown subcommand: "+cmd)
	fmt.Fprintln(a.Stderr)
	a.PrintHelp()
	return 2
}

func (a *App) PrintHelp() {
	fmt.Fprint(a.Stdout, `tada - your tasks, synced

Usage:
  tada [--group] [--theme name] [--color|--no-color] [--config file] <subcommand> [args]

Subcommands:
  ls [--sort field[:desc]]        List tasks (fields: dueDate, title, completed)
  tui                             Interactive list
  add <title...> [-d desc] [--due when]
                                  Add a task (when: 2006-01-02 or 2006-01-02T15:04)
  done <index>                    Toggle completion of the task at 1-based index
  edit <index> [--title t] [-d desc] [--due when]
                                  Change a task
  rm <index>                      Remove the task at 1-based index
  export [json|yaml]              Print all tasks
  auth <login|logout|status|whoami>
                                  Manage the session (TADA_TOKEN overrides)

Examples:
  tada auth login --email me@example.com
  tada add "Buy milk" --due 2025-03-20T10:00
  tada ls --sort dueDate
  tada done 2
  tada rm 3
`)
}

// session prepares a coordinator whose notifications print to the
// terminal. It fails with exit code 2 when no credential is available.
func (a *App) session() (*tasksync.Session, int) {
	if _, code := a.ensureAuth(); code != 0 {
		return nil, code
	}
	notifier := tasksync.NotifierFunc(func(n tasksync.Notification) {
		if n.Level == tasksync.LevelError {
			ui.Fail(a.Stderr, n.Message)
			if n.Kind == model.KindAuth {
				fmt.Fprintln(a.Stderr, ui.Current().Muted.Render("Run: tada auth login"))
			}
			return
		}
		ui.OK(a.Stdout, n.Message)
	})
	return a.newSession(notifier), 0
}

func (a *App) newSession(n tasksync.Notifier) *tasksync.Session {
	return tasksync.NewSession(a.NewGateway(), a.Logger,
		tasksync.WithNotifier(n),
		tasksync.WithClock(a.now),
	)
}

// load fetches the task list; failures have already been reported.
func (a *App) load(ctx context.Context) (*tasksync.Session, int) {
	s, code := a.session()
	if code != 0 {
		return nil, code
	}
	if err := s.Coordinator.LoadInitial(ctx); err != nil {
		return nil, exitCode(err)
	}
	return s, 0
}

// Require a token for networked commands.
func (a *App) ensureAuth() (*auth.TokenInfo, int) {
	ti, err := a.Creds.Get()
	if err != nil {
		ui.Fail(a.Stderr, "credentials: "+err.Error())
		return nil, 1
	}
	if ti == nil || strings.TrimSpace(ti.Token) == "" {
		ui.Fail(a.Stderr, "no token found. Set TADA_TOKEN or run `tada auth login`")
		return nil, 2
	}
	return ti, 0
}

// resolve maps a 1-based index over the fetched order to a task.
func (a *App) resolve(st store.State, cmd, arg string) (model.Task, int) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		ui.Fail(a.Stderr, cmd+": not a number: "+arg)
		return model.Task{}, 2
	}
	if n < 1 || n > len(st.Tasks) {
		ui.Fail(a.Stderr, fmt.Sprintf("index out of range: have %d, got %d", len(st.Tasks), n))
		fmt.Fprintln(a.Stderr, ui.Current().Muted.Render("Hint: run `tada ls` to see valid indexes"))
		return model.Task{}, 2
	}
	return st.Tasks[n-1], 0
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrValidation):
		return 2
	default:
		return 1
	}
}

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.Stdout, prompt)
	in := a.Stdin
	if in == nil {
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
