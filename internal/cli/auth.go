package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/ui"
)

func (a *App) doAuthLogin(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	token := fs.String("token", "", "store this token instead of logging in")
	if ok, code := a.parse(fs, args); !ok {
		return code
	}

	if *token == "" {
		tok, code := a.login(ctx, *email)
		if code != 0 {
			return code
		}
		*token = tok
	}

	ti, err := a.Creds.Set(*token)
	if err != nil {
		ui.Fail(a.Stderr, "save token: "+err.Error())
		return 1
	}
	ui.OK(a.Stdout, "Successfully logged in!")
	if ti.ExpiresAt != nil {
		fmt.Fprintln(a.Stdout, ui.Current().Muted.Render("expires: "+ti.ExpiresAt.UTC().Format(time.RFC3339)))
	}
	return 0
}

func (a *App) login(ctx context.Context, email string) (string, int) {
	var err error
	if email == "" {
		if email, err = a.readLine("Email: "); err != nil {
			ui.Fail(a.Stderr, "read email: "+err.Error())
			return "", 1
		}
	}
	if email == "" {
		ui.Fail(a.Stderr, "Email is required")
		return "", 2
	}

	fmt.Fprint(a.Stdout, "Password: ")
	password, err := a.ReadPassword()
	fmt.Fprintln(a.Stdout)
	if err != nil {
		ui.Fail(a.Stderr, "read password: "+err.Error())
		return "", 1
	}
	if password == "" {
		ui.Fail(a.Stderr, "Password is required")
		return "", 2
	}

	token, err := a.NewGateway().Login(ctx, email, password)
	if err != nil {
		a.Logger.Warn().Err(err).Str("email", email).Msg("login failed")
		ui.Fail(a.Stderr, "login: "+err.Error())
		return "", 1
	}
	return token, 0
}

func (a *App) doAuthLogout() int {
	ti, err := a.Creds.Get()
	if err != nil {
		// An unreadable file is still removed.
		a.Logger.Warn().Err(err).Msg("credentials unreadable, removing")
	}
	if ti != nil && ti.Source == auth.SourceEnv {
		ui.OK(a.Stdout, "token is provided by TADA_TOKEN env var (nothing to delete)")
		return 0
	}
	if err := a.Creds.Delete(); err != nil {
		ui.Fail(a.Stderr, "logout: "+err.Error())
		return 1
	}
	ui.OK(a.Stdout, "logged out")
	return 0
}

func (a *App) doAuthStatus() int {
	ti, err := a.Creds.Get()
	if err != nil {
		ui.Fail(a.Stderr, "credentials: "+err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(a.Stdout, ui.Current().Muted.Render("not logged in"))
		fmt.Fprintln(a.Stdout, "Run: tada auth login")
		return 0
	}
	fmt.Fprintf(a.Stdout, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		state := ""
		if ti.Expired(a.now()) {
			state = " " + ui.Current().Error.Render("(expired)")
		}
		fmt.Fprintf(a.Stdout, "expires: %s%s\n", ti.ExpiresAt.UTC().Format(time.RFC3339), state)
	} else {
		fmt.Fprintln(a.Stdout, "expires: (unknown)")
	}
	fmt.Fprintf(a.Stdout, "server: %s\n", a.Config.API.URL)
	fmt.Fprintln(a.Stdout, "env override: TADA_TOKEN")
	return 0
}

// whoami decodes the JWT locally (unverified); opaque tokens print basic info.
func (a *App) doAuthWhoAmI() int {
	ti, err := a.Creds.Get()
	if err != nil {
		ui.Fail(a.Stderr, "credentials: "+err.Error())
		return 1
	}
	if ti == nil {
		ui.Fail(a.Stderr, "not logged in. Run: tada auth login")
		return 2
	}
	claims, err := auth.Claims(ti.Token)
	if err != nil {
		fmt.Fprintln(a.Stdout, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(a.Stdout, "source:", ti.Source)
		return 0
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		ui.Fail(a.Stderr, "whoami: "+err.Error())
		return 1
	}
	fmt.Fprintln(a.Stdout, "JWT payload:")
	fmt.Fprintln(a.Stdout, string(b))
	return 0
}
