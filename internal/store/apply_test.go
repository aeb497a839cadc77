package store

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/idilsaglam/tada/internal/model"
)

var due = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

func task(id string, completed bool) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Completed: completed, DueDate: due}
}

func loaded(tasks ...model.Task) State {
	return Apply(Initial(), FetchSuccess{Tasks: tasks})
}

func ids(s State) []string {
	out := make([]string, len(s.Tasks))
	for i, t := range s.Tasks {
		out[i] = t.ID
	}
	return out
}

func TestFetchTransitions(t *testing.T) {
	s := Initial()
	if !s.IsLoading {
		t.Fatal("Expected initial state to be loading")
	}

	s = Apply(s, FetchSuccess{Tasks: []model.Task{task("1", false), task("2", true)}})
	if s.IsLoading || s.Err != "" {
		t.Errorf("Expected loaded state without error, got %+v", s)
	}
	if s.Progress != (model.Progress{Completed: 1, Total: 2}) {
		t.Errorf("Expected progress 1/2, got %+v", s.Progress)
	}

	s = Apply(s, FetchStart{})
	if !s.IsLoading || len(s.Tasks) != 2 {
		t.Errorf("Expected loading state keeping tasks, got %+v", s)
	}

	s = Apply(s, FetchError{Message: "Failed to fetch tasks"})
	if s.IsLoading || s.Err != "Failed to fetch tasks" || len(s.Tasks) != 2 {
		t.Errorf("Expected error state keeping tasks, got %+v", s)
	}

	s = Apply(s, FetchSuccess{Tasks: nil})
	if s.Err != "" || len(s.Tasks) != 0 || s.Progress.Total != 0 {
		t.Errorf("Expected error cleared by successful fetch, got %+v", s)
	}
}

func TestFetchSuccessDropsDuplicateIDs(t *testing.T) {
	s := loaded(task("1", false), task("1", true), task("2", false))
	if got := ids(s); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
	if s.Tasks[0].Completed {
		t.Error("Expected first occurrence to win")
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s := loaded(task("1", false))
	s = Apply(s, Add{Task: task("2", true)})
	if got := ids(s); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Fatalf("Expected [1 2], got %v", got)
	}

	dup := task("1", true)
	after := Apply(s, Add{Task: dup})
	if !reflect.DeepEqual(after, s) {
		t.Errorf("Expected duplicate add to be ignored, got %+v", after)
	}
}

func TestInsertRestoresPosition(t *testing.T) {
	s := loaded(task("1", false), task("2", false), task("3", false))
	removed, idx, _ := s.Find("2")
	s = Apply(s, Delete{ID: "2"})
	s = Apply(s, Insert{Index: idx, Task: removed})
	if got := ids(s); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("Expected [1 2 3], got %v", got)
	}

	s = Apply(s, Insert{Index: 99, Task: task("4", false)})
	s = Apply(s, Insert{Index: -3, Task: task("0", false)})
	if got := ids(s); !reflect.DeepEqual(got, []string{"0", "1", "2", "3", "4"}) {
		t.Errorf("Expected clamped inserts, got %v", got)
	}
}

func TestUpdateReplacesWholeTask(t *testing.T) {
	s := loaded(task("1", false), task("2", false))
	repl := model.Task{ID: "1", Title: "Replaced", Completed: true}
	s = Apply(s, Update{Task: repl})
	if s.Tasks[0] != repl {
		t.Errorf("Expected full replacement, got %+v", s.Tasks[0])
	}
	if s.Progress.Completed != 1 {
		t.Errorf("Expected progress recomputed, got %+v", s.Progress)
	}

	after := Apply(s, Update{Task: task("missing", true)})
	if !reflect.DeepEqual(after, s) {
		t.Errorf("Expected update of absent id to be ignored, got %+v", after)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := loaded(task("1", false), task("2", true))
	once := Apply(s, Delete{ID: "2"})
	twice := Apply(once, Delete{ID: "2"})
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Expected idempotent delete, got %+v then %+v", once, twice)
	}
	if once.Progress != (model.Progress{Completed: 0, Total: 1}) {
		t.Errorf("Expected progress 0/1, got %+v", once.Progress)
	}
}

type unknownAction struct{}

func (unknownAction) action() string { return "unknown" }

func TestUnknownActionIsNoop(t *testing.T) {
	s := loaded(task("1", false))
	if after := Apply(s, unknownAction{}); !reflect.DeepEqual(after, s) {
		t.Errorf("Expected unchanged state, got %+v", after)
	}
	if after := Apply(s, nil); !reflect.DeepEqual(after, s) {
		t.Errorf("Expected unchanged state for nil action, got %+v", after)
	}
}

// randomAction draws from a small id space so that adds collide and
// deletes hit existing tasks often.
func randomAction(r *rand.Rand) Action {
	id := fmt.Sprint(r.Intn(6))
	switch r.Intn(4) {
	case 0:
		return Add{Task: task(id, r.Intn(2) == 0)}
	case 1:
		return Update{Task: task(id, r.Intn(2) == 0)}
	case 2:
		return Insert{Index: r.Intn(5) - 1, Task: task(id, r.Intn(2) == 0)}
	default:
		return Delete{ID: id}
	}
}

func TestProgressInvariantAndPurity(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	s := loaded()
	for i := 0; i < 2000; i++ {
		a := randomAction(r)

		before := snapshot(s)
		next := Apply(s, a)
		if !reflect.DeepEqual(snapshot(s), before) {
			t.Fatalf("step %d: Apply(%s) mutated its input", i, Name(a))
		}
		if again := Apply(s, a); !reflect.DeepEqual(again, next) {
			t.Fatalf("step %d: Apply(%s) is not deterministic", i, Name(a))
		}

		if next.Progress != model.ProgressOf(next.Tasks) {
			t.Fatalf("step %d: progress %+v does not match tasks %v", i, next.Progress, ids(next))
		}
		seen := map[string]bool{}
		for _, tk := range next.Tasks {
			if seen[tk.ID] {
				t.Fatalf("step %d: duplicate id %s after %s", i, tk.ID, Name(a))
			}
			seen[tk.ID] = true
		}
		s = next
	}
}

func snapshot(s State) State {
	s.Tasks = append([]model.Task(nil), s.Tasks...)
	return s
}
