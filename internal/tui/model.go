// Package tui is the interactive task list.
//
// The bubbletea loop never blocks on the network: coordinator calls run as
// commands, and the model re-renders from Store snapshots delivered through
// a subscription.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/tasksync"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

type (
	stateMsg  store.State
	noticeMsg tasksync.Notification
	opDoneMsg struct {
		id  string
		err error
		// removed is set for deletes; undo only becomes available once the
		// server confirmed them.
		removed *deletedTask
	}
)

// deletedTask is what undo puts back, and where.
type deletedTask struct {
	task  model.Task
	index int
}

// Options tune the interactive view.
type Options struct {
	Title  string
	Sort   model.Sort
	Now    func() time.Time
	Width  int
	Height int
}

// Model is the bubbletea model over one session.
type Model struct {
	ctx         context.Context
	session     *tasksync.Session
	states      <-chan store.State
	unsubscribe func()
	notices     <-chan tasksync.Notification

	state   store.State
	list    list.Model
	spinner spinner.Model
	sort    model.Sort
	pending map[string]bool

	mode     mode
	input    textinput.Model
	editID   string
	inputErr string

	notice      *tasksync.Notification
	lastDeleted *deletedTask
	authExpired bool

	title         string
	now           func() time.Time
	width, height int
}

var (
	addBind    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind   = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteBind = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	toggleBind = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	undoBind   = key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo delete"))
	reloadBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
	sortBind   = key.NewBinding(key.WithKeys("s"), key.WithHelp("s/S", "sort/reverse"))
)

// NewModel subscribes to the session's store. notices should carry what
// the session's coordinator reports; nil disables the status line.
func NewModel(ctx context.Context, session *tasksync.Session, notices <-chan tasksync.Notification, opt Options) Model {
	if opt.Title == "" {
		opt.Title = "Today"
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Width <= 0 {
		opt.Width = 80
	}
	if opt.Height <= 0 {
		opt.Height = 24
	}

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{toggleBind, addBind, editBind, deleteBind}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{toggleBind, addBind, editBind, deleteBind, undoBind, reloadBind, sortBind}
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = model.MaxTitleLen

	states, unsubscribe := session.Store.Subscribe()

	m := Model{
		ctx:         ctx,
		session:     session,
		states:      states,
		unsubscribe: unsubscribe,
		notices:     notices,
		state:       session.Store.State(),
		list:        l,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		sort:        opt.Sort,
		pending:     make(map[string]bool),
		input:       ti,
		title:       opt.Title,
		now:         opt.Now,
	}
	m.resize(opt.Width, opt.Height)
	m.refreshItems()
	return m
}

// Close stops the store subscription.
func (m Model) Close() { m.unsubscribe() }

// AuthExpired reports whether the session ended because the server
// rejected the credential.
func (m Model) AuthExpired() bool { return m.authExpired }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.states),
		waitForNotice(m.notices),
		m.spinner.Tick,
		m.load(),
	)
}

func waitForState(ch <-chan store.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func waitForNotice(ch <-chan tasksync.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (m Model) load() tea.Cmd {
	coord := m.session.Coordinator
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{err: coord.LoadInitial(ctx)}
	}
}

// run starts op for id and marks it pending until it reports back.
func (m *Model) run(id string, op func(ctx context.Context) error) tea.Cmd {
	m.pending[id] = true
	m.refreshItems()
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{id: id, err: op(ctx)}
	}
}

func (m Model) selected() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Task{}, false
	}
	return it.task, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case stateMsg:
		m.state = store.State(msg)
		m.refreshItems()
		return m, waitForState(m.states)

	case noticeMsg:
		n := tasksync.Notification(msg)
		m.notice = &n
		if n.Kind == model.KindAuth {
			m.authExpired = true
			return m, tea.Quit
		}
		return m, waitForNotice(m.notices)

	case opDoneMsg:
		if msg.removed != nil && msg.err == nil {
			m.lastDeleted = msg.removed
		}
		if msg.id != "" {
			delete(m.pending, msg.id)
			m.refreshItems()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.mode != modeList {
		return m.updateInput(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if next, cmd, handled := m.handleKey(k); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(k tea.KeyMsg) (Model, tea.Cmd, bool) {
	coord := m.session.Coordinator

	switch k.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit, true

	case " ":
		t, ok := m.selected()
		if !ok || m.pending[t.ID] {
			return m, nil, true
		}
		cmd := m.run(t.ID, func(ctx context.Context) error {
			return coord.ToggleCompletion(ctx, t.ID)
		})
		return m, cmd, true

	case "d":
		t, ok := m.selected()
		if !ok || m.pending[t.ID] {
			return m, nil, true
		}
		_, idx, _ := m.state.Find(t.ID)
		removed := &deletedTask{task: t, index: idx}
		remove := m.run(t.ID, func(ctx context.Context) error {
			return coord.RemoveTask(ctx, t.ID)
		})
		return m, func() tea.Msg {
			done, _ := remove().(opDoneMsg)
			done.removed = removed
			return done
		}, true

	case "u":
		if m.lastDeleted == nil {
			return m, nil, true
		}
		d := *m.lastDeleted
		m.lastDeleted = nil
		ctx := m.ctx
		return m, func() tea.Msg {
			_, err := coord.RestoreTask(ctx, d.task, d.index)
			return opDoneMsg{err: err}
		}, true

	case "a":
		m.mode = modeAdd
		m.inputErr = ""
		m.input.SetValue("")
		m.input.Placeholder = "New task title..."
		cmd := m.input.Focus()
		return m, cmd, true

	case "e":
		t, ok := m.selected()
		if !ok || m.pending[t.ID] {
			return m, nil, true
		}
		m.mode = modeEdit
		m.editID = t.ID
		m.inputErr = ""
		m.input.SetValue(t.Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit task title..."
		cmd := m.input.Focus()
		return m, cmd, true

	case "r":
		return m, m.load(), true

	case "s":
		m.sort = m.sort.Next()
		m.refreshItems()
		return m, nil, true

	case "S":
		if m.sort.Field != model.SortNone {
			m.sort.Desc = !m.sort.Desc
			m.refreshItems()
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.closeInput()
			return m, nil
		case "enter":
			return m.submitInput()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	coord := m.session.Coordinator
	value := m.input.Value()

	switch m.mode {
	case modeAdd:
		nt, err := model.NewTask{Title: value}.Normalize(m.now())
		if err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		m.closeInput()
		ctx := m.ctx
		return m, func() tea.Msg {
			_, err := coord.AddTask(ctx, nt)
			return opDoneMsg{err: err}
		}

	case modeEdit:
		title := strings.TrimSpace(value)
		patch := model.Patch{Title: &title}
		if err := patch.Validate(); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		id := m.editID
		m.closeInput()
		if t, _, ok := m.state.Find(id); !ok || t.Title == title {
			return m, nil
		}
		cmd := m.run(id, func(ctx context.Context) error {
			return coord.EditTask(ctx, id, patch)
		})
		return m, cmd
	}
	return m, nil
}

func (m *Model) closeInput() {
	m.mode = modeList
	m.editID = ""
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
}

// refreshItems rebuilds the list from the current state, keeping the
// cursor on the same task.
func (m *Model) refreshItems() {
	var selectedID string
	if t, ok := m.selected(); ok {
		selectedID = t.ID
	}

	tasks := model.Sorted(m.state.Tasks, m.sort)
	items := make([]list.Item, 0, len(tasks))
	index := min(m.list.Index(), len(tasks)-1)
	for i, t := range tasks {
		items = append(items, listItem{task: t, pending: m.pending[t.ID]})
		if t.ID == selectedID {
			index = i
		}
	}
	m.list.SetItems(items)
	if index >= 0 {
		m.list.Select(index)
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.list.SetSize(w-4, h-8)
	m.input.Width = w - 10
}
