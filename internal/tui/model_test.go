package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/tasksync"
)

type fakeGateway struct {
	mu      sync.Mutex
	tasks   []model.Task
	updates []string
	err     error
}

func (g *fakeGateway) List(ctx context.Context) ([]model.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Task(nil), g.tasks...), g.err
}

func (g *fakeGateway) Create(ctx context.Context, nt model.NewTask) (model.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return model.Task{}, g.err
	}
	t := model.Task{ID: "new", Title: nt.Title, Description: nt.Description, DueDate: nt.DueDate}
	g.tasks = append(g.tasks, t)
	return t, nil
}

func (g *fakeGateway) Update(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, id)
	for _, t := range g.tasks {
		if t.ID == id {
			return p.Apply(t), g.err
		}
	}
	return model.Task{}, model.ErrNotFound
}

func (g *fakeGateway) Delete(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *fakeGateway) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

var fixedNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Buy milk", DueDate: fixedNow.Add(time.Hour)},
		{ID: "2", Title: "Archive mail", Completed: true, DueDate: fixedNow},
	}
}

func newTestModel(t *testing.T, gw *fakeGateway) Model {
	t.Helper()
	session := tasksync.NewSession(gw, zerolog.Nop(), tasksync.WithClock(func() time.Time { return fixedNow }))
	m := NewModel(context.Background(), session, nil, Options{Now: func() time.Time { return fixedNow }, Width: 100, Height: 30})
	t.Cleanup(m.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func withState(t *testing.T, m Model, tasks []model.Task) Model {
	t.Helper()
	st := store.Apply(store.Initial(), store.FetchSuccess{Tasks: tasks})
	m, _ = update(t, m, stateMsg(st))
	return m
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestViewShowsHeaderAndTasks(t *testing.T) {
	m := withState(t, newTestModel(t, &fakeGateway{}), sampleTasks())

	view := m.View()
	for _, want := range []string{"Today", "Wednesday, March 20", "1/2 done", "Buy milk", "Archive mail"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}
}

func TestEmptyLoadingAndErrorStates(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})
	if !strings.Contains(m.View(), loadingText) {
		t.Errorf("Expected loading text initially")
	}

	m = withState(t, m, nil)
	if !strings.Contains(m.View(), emptyText) {
		t.Errorf("Expected empty state, got:\n%s", m.View())
	}

	st := store.Apply(store.Initial(), store.FetchError{Message: tasksync.FetchErrorMessage})
	m, _ = update(t, m, stateMsg(st))
	if !strings.Contains(m.View(), "Failed to fetch tasks") {
		t.Errorf("Expected fetch error state, got:\n%s", m.View())
	}
}

func TestToggleRunsOnceWhilePending(t *testing.T) {
	gw := &fakeGateway{tasks: sampleTasks()}
	m := newTestModel(t, gw)
	if err := m.session.Coordinator.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	m = withState(t, m, m.session.Store.State().Tasks)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if cmd == nil {
		t.Fatal("Expected a command for toggle")
	}
	if !m.pending["1"] {
		t.Fatal("Expected task 1 to be pending")
	}
	if !strings.Contains(m.View(), "saving") {
		t.Errorf("Expected pending marker in view")
	}

	if _, again := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}); again != nil {
		t.Error("Expected second toggle to be ignored while pending")
	}

	done, ok := cmd().(opDoneMsg)
	if !ok || done.id != "1" || done.err != nil {
		t.Fatalf("Unexpected result %#v", done)
	}
	m, _ = update(t, m, done)
	if m.pending["1"] {
		t.Error("Expected pending flag to clear")
	}
	if len(gw.updates) != 1 {
		t.Errorf("Expected one remote update, got %d", len(gw.updates))
	}
	if task, _, _ := m.session.Store.State().Find("1"); !task.Completed {
		t.Error("Expected task 1 to be completed in the store")
	}
}

func loadedModel(t *testing.T, gw *fakeGateway) Model {
	t.Helper()
	m := newTestModel(t, gw)
	if err := m.session.Coordinator.LoadInitial(context.Background()); err != nil {
		t.Fatal(err)
	}
	return withState(t, m, m.session.Store.State().Tasks)
}

// deleteSelected presses d and feeds the result back into the model.
func deleteSelected(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, keyRunes("d"))
	if cmd == nil {
		t.Fatal("Expected a command for delete")
	}
	m, _ = update(t, m, cmd())
	return withState(t, m, m.session.Store.State().Tasks)
}

func TestUndoUnavailableAfterFailedDelete(t *testing.T) {
	gw := &fakeGateway{tasks: sampleTasks()}
	m := loadedModel(t, gw)

	gw.setErr(model.ErrNetwork)
	m = deleteSelected(t, m)
	gw.setErr(nil)

	if m.lastDeleted != nil {
		t.Fatal("Expected no undo after a failed delete")
	}
	if _, cmd := update(t, m, keyRunes("u")); cmd != nil {
		t.Error("Expected undo to do nothing")
	}
	st := m.session.Store.State()
	if len(st.Tasks) != 2 || st.Has("new") {
		t.Errorf("Expected the original two tasks, got %+v", st.Tasks)
	}
}

func TestUndoRestoresCompletedTaskInPlace(t *testing.T) {
	gw := &fakeGateway{tasks: sampleTasks()}
	m := loadedModel(t, gw)

	m.list.Select(1)
	m = deleteSelected(t, m)
	if m.session.Store.State().Has("2") {
		t.Fatal("Expected task 2 deleted")
	}

	m, cmd := update(t, m, keyRunes("u"))
	if cmd == nil {
		t.Fatal("Expected a command for undo")
	}
	if done := cmd().(opDoneMsg); done.err != nil {
		t.Fatalf("undo failed: %v", done.err)
	}
	if m.lastDeleted != nil {
		t.Error("Expected undo to be single-level")
	}

	st := m.session.Store.State()
	if len(st.Tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %+v", st.Tasks)
	}
	got := st.Tasks[1]
	if got.Title != "Archive mail" || !got.Completed {
		t.Errorf("Expected completed Archive mail at index 1, got %+v", got)
	}
	if st.Progress != (model.Progress{Completed: 1, Total: 2}) {
		t.Errorf("Unexpected progress %+v", st.Progress)
	}
}

func TestAddValidatesInline(t *testing.T) {
	m := withState(t, newTestModel(t, &fakeGateway{}), nil)

	m, _ = update(t, m, keyRunes("a"))
	if m.mode != modeAdd {
		t.Fatal("Expected add mode")
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("Expected no command for an empty title")
	}
	if !strings.Contains(m.View(), "Title is required") {
		t.Errorf("Expected inline error, got:\n%s", m.View())
	}

	m, _ = update(t, m, keyRunes("Walk dog"))
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.mode != modeList {
		t.Fatal("Expected add to submit and close the input")
	}
	if msg := cmd().(opDoneMsg); msg.err != nil {
		t.Fatalf("AddTask failed: %v", msg.err)
	}
	if !m.session.Store.State().Has("new") {
		t.Error("Expected created task in the store")
	}
}

func TestSortKeysReorderView(t *testing.T) {
	m := withState(t, newTestModel(t, &fakeGateway{}), sampleTasks())

	m, _ = update(t, m, keyRunes("s"))
	if m.sort.Field != model.SortDueDate {
		t.Fatalf("Expected dueDate sort, got %s", m.sort)
	}
	view := m.View()
	if strings.Index(view, "Archive mail") > strings.Index(view, "Buy milk") {
		t.Errorf("Expected earlier due date first:\n%s", view)
	}

	m, _ = update(t, m, keyRunes("S"))
	view = m.View()
	if !m.sort.Desc || strings.Index(view, "Buy milk") > strings.Index(view, "Archive mail") {
		t.Errorf("Expected reversed order:\n%s", view)
	}
	if got := m.session.Store.State().Tasks[0].ID; got != "1" {
		t.Errorf("Sorting must not reorder the store, first id %s", got)
	}
}

func TestAuthNoticeQuits(t *testing.T) {
	m := newTestModel(t, &fakeGateway{})

	m, cmd := update(t, m, noticeMsg(tasksync.Notification{Level: tasksync.LevelError, Kind: model.KindAuth, Message: "expired"}))
	if !m.AuthExpired() {
		t.Error("Expected auth expiry to be recorded")
	}
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestErrorNoticeShown(t *testing.T) {
	m := withState(t, newTestModel(t, &fakeGateway{}), sampleTasks())
	m, _ = update(t, m, noticeMsg(tasksync.Notification{Level: tasksync.LevelError, Kind: model.KindNetwork, Message: "Failed to update task"}))
	if !strings.Contains(m.View(), "Failed to update task") {
		t.Errorf("Expected notice in view")
	}
}

func TestNotifierNeverBlocks(t *testing.T) {
	n, ch := NewNotifier()
	for i := 0; i < 100; i++ {
		n.Notify(tasksync.Notification{Message: "x"})
	}
	if len(ch) != cap(ch) {
		t.Errorf("Expected a full buffer, got %d/%d", len(ch), cap(ch))
	}
}

func TestNotifierKeepsAuthNoticeWhenFull(t *testing.T) {
	n, ch := NewNotifier()
	for i := 0; i < cap(ch); i++ {
		n.Notify(tasksync.Notification{Level: tasksync.LevelError, Kind: model.KindNetwork, Message: "x"})
	}
	n.Notify(tasksync.Notification{Level: tasksync.LevelError, Kind: model.KindAuth, Message: "expired"})

	var sawAuth bool
	for len(ch) > 0 {
		if (<-ch).Kind == model.KindAuth {
			sawAuth = true
		}
	}
	if !sawAuth {
		t.Error("Expected the auth notice to survive a full buffer")
	}
}
