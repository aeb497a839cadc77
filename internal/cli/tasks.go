package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/tui"
	"github.com/idilsaglam/tada/internal/ui"
)

const maxTitleWidth = 80

// parse runs fs over args. ok is false when the command should return
// code right away.
func (a *App) parse(fs *pflag.FlagSet, args []string) (ok bool, code int) {
	fs.SetOutput(a.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, 0
		}
		ui.Fail(a.Stderr, fs.Name()+": "+err.Error())
		return false, 2
	}
	return true, 0
}

func (a *App) doList(ctx context.Context, args []string, opt Options) int {
	fs := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	sortFlag := fs.String("sort", "", "sort by dueDate, title or completed; append :desc to reverse")
	if ok, code := a.parse(fs, args); !ok {
		return code
	}
	sort, err := model.ParseSort(*sortFlag)
	if err != nil {
		ui.Fail(a.Stderr, "ls: "+err.Error())
		return 2
	}

	s, code := a.load(ctx)
	if code != 0 {
		return code
	}
	st := s.Store.State()

	lines := a.headerLines(st)
	lines = append(lines, "")
	if opt.Group {
		lines = append(lines, groupLines(st, sort)...)
	} else {
		lines = append(lines, flatLines(st, model.Sorted(st.Tasks, sort))...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.Current().Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
	ui.Panel(a.Stdout, lines)
	return 0
}

func (a *App) doTUI(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("tui", pflag.ContinueOnError)
	sortFlag := fs.String("sort", "", "initial sort")
	if ok, code := a.parse(fs, args); !ok {
		return code
	}
	sort, err := model.ParseSort(*sortFlag)
	if err != nil {
		ui.Fail(a.Stderr, "tui: "+err.Error())
		return 2
	}
	if _, code := a.ensureAuth(); code != 0 {
		return code
	}

	notifier, notices := tui.NewNotifier()
	session := a.newSession(notifier)
	res, err := tui.Run(ctx, session, notices, tui.Options{Sort: sort, Now: a.now})
	if err != nil {
		ui.Fail(a.Stderr, "tui: "+err.Error())
		return 1
	}
	if res.AuthExpired {
		ui.Fail(a.Stderr, "Your session has expired. Please log in again.")
		fmt.Fprintln(a.Stderr, ui.Current().Muted.Render("Run: tada auth login"))
		return 1
	}
	return 0
}

func (a *App) doAdd(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
	desc := fs.StringP("description", "d", "", "task description")
	due := fs.String("due", "", "due date (default now)")
	if ok, code := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		ui.Fail(a.Stderr, "usage: tada add <title...> [-d desc] [--due when]")
		return 2
	}

	nt := model.NewTask{Title: strings.Join(fs.Args(), " "), Description: *desc}
	if *due != "" {
		d, err := model.ParseDueDate(*due, a.now())
		if err != nil {
			ui.Fail(a.Stderr, err.Error())
			return 2
		}
		nt.DueDate = d
	}

	s, code := a.session()
	if code != 0 {
		return code
	}
	created, err := s.Coordinator.AddTask(ctx, nt)
	if err != nil {
		return exitCode(err)
	}
	a.Logger.Debug().Str("task_id", created.ID).Msg("added")
	return 0
}

func (a *App) doToggle(ctx context.Context, args []string) int {
	if len(args) != 1 {
		ui.Fail(a.Stderr, "usage: tada done <index>")
		return 2
	}
	s, code := a.load(ctx)
	if code != 0 {
		return code
	}
	t, code := a.resolve(s.Store.State(), "done", args[0])
	if code != 0 {
		return code
	}
	return exitCode(s.Coordinator.ToggleCompletion(ctx, t.ID))
}

func (a *App) doEdit(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	title := fs.String("title", "", "new title")
	desc := fs.StringP("description", "d", "", "new description")
	due := fs.String("due", "", "new due date")
	if ok, code := a.parse(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		ui.Fail(a.Stderr, "usage: tada edit <index> [--title t] [-d desc] [--due when]")
		return 2
	}

	var patch model.Patch
	if fs.Changed("title") {
		patch.Title = title
	}
	if fs.Changed("description") {
		patch.Description = desc
	}
	if fs.Changed("due") {
		d, err := model.ParseDueDate(*due, a.now())
		if err != nil {
			ui.Fail(a.Stderr, err.Error())
			return 2
		}
		patch.DueDate = &d
	}
	if patch.IsEmpty() {
		ui.Fail(a.Stderr, "edit: nothing to change")
		return 2
	}

	s, code := a.load(ctx)
	if code != 0 {
		return code
	}
	t, code := a.resolve(s.Store.State(), "edit", fs.Arg(0))
	if code != 0 {
		return code
	}
	return exitCode(s.Coordinator.EditTask(ctx, t.ID, patch))
}

func (a *App) doRemove(ctx context.Context, args []string) int {
	if len(args) != 1 {
		ui.Fail(a.Stderr, "usage: tada rm <index>")
		return 2
	}
	s, code := a.load(ctx)
	if code != 0 {
		return code
	}
	t, code := a.resolve(s.Store.State(), "rm", args[0])
	if code != 0 {
		return code
	}
	return exitCode(s.Coordinator.RemoveTask(ctx, t.ID))
}

type exportDoc struct {
	Progress model.Progress `json:"progress" yaml:"progress"`
	Tasks    []model.Task   `json:"tasks" yaml:"tasks"`
}

func (a *App) doExport(ctx context.Context, args []string) int {
	format := "json"
	if len(args) > 1 {
		ui.Fail(a.Stderr, "usage: tada export [json|yaml]")
		return 2
	}
	if len(args) == 1 {
		format = strings.ToLower(args[0])
	}
	if format != "json" && format != "yaml" && format != "yml" {
		ui.Fail(a.Stderr, "export: unknown format "+args[0])
		return 2
	}

	s, code := a.load(ctx)
	if code != 0 {
		return code
	}
	st := s.Store.State()
	doc := exportDoc{Progress: st.Progress, Tasks: st.Tasks}
	if doc.Tasks == nil {
		doc.Tasks = []model.Task{}
	}

	if format == "json" {
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			ui.Fail(a.Stderr, "export: "+err.Error())
			return 1
		}
		return 0
	}
	enc := yaml.NewEncoder(a.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		ui.Fail(a.Stderr, "export: "+err.Error())
		return 1
	}
	if err := enc.Close(); err != nil {
		ui.Fail(a.Stderr, "export: "+err.Error())
		return 1
	}
	return 0
}

// -------------- rendering helpers --------------

func (a *App) headerLines(st store.State) []string {
	t := ui.Current()
	p := st.Progress
	return []string{
		fmt.Sprintf("%s  %s", t.Title.Render("Today"), t.Muted.Render(a.now().Format("Monday, January 2"))),
		fmt.Sprintf("%s %d  %s %d  %s %d",
			t.Success.Render(t.SymDone), p.Completed,
			t.Pending.Render(t.SymPending), p.Total-p.Completed,
			t.Accent.Render("Total"), p.Total),
		t.Muted.Render(ui.ProgressBar(p.Completed, p.Total, 28)) + fmt.Sprintf("  %d/%d done", p.Completed, p.Total),
	}
}

// flatLines renders tasks with their index in the fetched order, so the
// numbers stay valid for done/edit/rm whatever the display sort.
func flatLines(st store.State, tasks []model.Task) []string {
	t := ui.Current()
	if len(tasks) == 0 {
		return []string{t.Muted.Render("No tasks yet")}
	}
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		_, i, _ := st.Find(task.ID)
		title := task.Title
		if r := []rune(title); len(r) > maxTitleWidth {
			title = string(r[:maxTitleWidth-3]) + "..."
		}
		if task.Completed {
			title = t.Done.Render(title)
		}
		out = append(out, fmt.Sprintf("%s %s %s  %s",
			t.Muted.Render(fmt.Sprintf("%2d.", i+1)),
			ui.Checkbox(task.Completed),
			title,
			t.Muted.Render(task.DueDate.Local().Format("Jan 2 15:04"))))
	}
	return out
}

func groupLines(st store.State, sort model.Sort) []string {
	var pend, done []model.Task
	for _, task := range model.Sorted(st.Tasks, sort) {
		if task.Completed {
			done = append(done, task)
		} else {
			pend = append(pend, task)
		}
	}
	t := ui.Current()
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(st, pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(st, done)...)
	}
	return lines
}
