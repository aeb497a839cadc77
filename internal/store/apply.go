package store

import "github.com/idilsaglam/tada/internal/model"

// Apply returns the state that results from a on s. It never mutates s and
// never fails: actions whose precondition does not hold leave s unchanged.
func Apply(s State, a Action) State {
	switch a := a.(type) {
	case FetchStart:
		s.IsLoading = true
		s.Err = ""
		return s

	case FetchSuccess:
		s.IsLoading = false
		s.Err = ""
		return withTasks(s, dedupe(a.Tasks))

	case FetchError:
		s.IsLoading = false
		s.Err = a.Message
		return s

	case Add:
		if s.Has(a.Task.ID) {
			return s
		}
		tasks := make([]model.Task, 0, len(s.Tasks)+1)
		tasks = append(tasks, s.Tasks...)
		tasks = append(tasks, a.Task)
		return withTasks(s, tasks)

	case Insert:
		if s.Has(a.Task.ID) {
			return s
		}
		idx := min(max(a.Index, 0), len(s.Tasks))
		tasks := make([]model.Task, 0, len(s.Tasks)+1)
		tasks = append(tasks, s.Tasks[:idx]...)
		tasks = append(tasks, a.Task)
		tasks = append(tasks, s.Tasks[idx:]...)
		return withTasks(s, tasks)

	case Update:
		_, idx, ok := s.Find(a.Task.ID)
		if !ok {
			return s
		}
		tasks := make([]model.Task, len(s.Tasks))
		copy(tasks, s.Tasks)
		tasks[idx] = a.Task
		return withTasks(s, tasks)

	case Delete:
		if !s.Has(a.ID) {
			return s
		}
		tasks := make([]model.Task, 0, len(s.Tasks)-1)
		for _, t := range s.Tasks {
			if t.ID != a.ID {
				tasks = append(tasks, t)
			}
		}
		return withTasks(s, tasks)
	}
	return s
}

func withTasks(s State, tasks []model.Task) State {
	s.Tasks = tasks
	s.Progress = model.ProgressOf(tasks)
	return s
}

// dedupe copies tasks, keeping the first occurrence of each id.
func dedupe(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
