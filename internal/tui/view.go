package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/tasksync"
	"github.com/idilsaglam/tada/internal/ui"
)

const (
	emptyText   = "No tasks yet"
	loadingText = "Loading tasks..."
	retryHint   = "press r to retry"
	dueLayout   = "Jan 2 15:04"
)

// listItem adapts a task to bubbles/list.Item
type listItem struct {
	task    model.Task
	pending bool
}

func (i listItem) Title() string       { return i.task.Title }
func (i listItem) Description() string { return i.task.Description }
func (i listItem) FilterValue() string { return i.task.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	t := ui.Current()

	text := it.task.Title
	if it.task.Completed {
		text = t.Done.Render(text)
	}
	line := fmt.Sprintf("%s %s  %s", ui.Checkbox(it.task.Completed), text, t.Muted.Render(it.task.DueDate.Local().Format(dueLayout)))
	if it.pending {
		line += " " + t.Pending.Render("saving…")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprint(w, prefix+line)
}

func (m Model) header() string {
	t := ui.Current()
	p := m.state.Progress

	title := fmt.Sprintf("%s  %s", t.Title.Render(m.title), t.Muted.Render(m.now().Format("Monday, January 2")))
	progress := fmt.Sprintf("%s %d/%d done  %s",
		t.Success.Render(t.SymDone), p.Completed, p.Total,
		t.Accent.Render(ui.ProgressBar(p.Completed, p.Total, 20)))
	if m.sort.Field != model.SortNone {
		progress += "  " + t.Muted.Render("sort: "+m.sort.String())
	}
	return title + "\n" + progress
}

func (m Model) body() string {
	t := ui.Current()
	switch {
	case len(m.state.Tasks) > 0:
		return m.list.View()
	case m.state.IsLoading:
		return m.spinner.View() + " " + t.Muted.Render(loadingText)
	case m.state.Err != "":
		return t.Error.Render(m.state.Err) + "\n" + t.Muted.Render(retryHint)
	default:
		return t.Muted.Render(emptyText) + "\n" + t.Help.Render("press a to add one")
	}
}

func (m Model) status() string {
	if m.notice == nil {
		return ""
	}
	t := ui.Current()
	if m.notice.Level == tasksync.LevelError {
		return t.Error.Render(t.SymCross + " " + m.notice.Message)
	}
	return t.Success.Render(t.SymDone + " " + m.notice.Message)
}

func (m Model) View() string {
	t := ui.Current()
	parts := []string{m.header(), "", m.body()}

	if s := m.status(); s != "" {
		parts = append(parts, "", s)
	}

	if m.mode != modeList {
		title := "Add new task"
		if m.mode == modeEdit {
			title = "Edit task"
		}
		if m.inputErr != "" {
			title += ": " + t.Error.Render(m.inputErr)
		}
		parts = append(parts, ui.PanelString(title+"\n"+m.input.View()))
	}
	return ui.PanelString(strings.Join(parts, "\n"))
}
