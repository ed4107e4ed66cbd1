package storage_test

import (
	"testing"

	"github.com/JamesPrial/tasktracker/internal/storage"
)

// ---------------------------------------------------------------------------
// Shared Backend behaviour, run against every implementation
// ---------------------------------------------------------------------------

// runBackendContract exercises the behaviour every Backend must share.
// newBackend must return an empty backend each time it is called.
func runBackendContract(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Helper()

	t.Run("fresh backend returns non-nil empty slice", func(t *testing.T) {
		b := newBackend(t)
		tasks, err := b.GetAll()
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		if tasks == nil {
			t.Error("GetAll returned nil, want non-nil empty slice")
		}
		if len(tasks) != 0 {
			t.Errorf("GetAll: got %d tasks, want 0", len(tasks))
		}
	})

	t.Run("first add gets id 1", func(t *testing.T) {
		b := newBackend(t)
		added, err := b.Add(storage.NewTask("Buy milk", "2% milk", storage.StateToDo))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if added.ID != 1 {
			t.Errorf("Add id = %d, want 1", added.ID)
		}

		tasks, err := b.GetAll()
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		want := storage.Task{ID: 1, Title: "Buy milk", Description: "2% milk", State: storage.StateToDo}
		if len(tasks) != 1 || tasks[0] != want {
			t.Errorf("GetAll = %+v, want [%+v]", tasks, want)
		}
	})

	t.Run("add does not modify its argument", func(t *testing.T) {
		b := newBackend(t)
		in := storage.Task{ID: 42, Title: "keep", State: storage.StateCompleted}
		added, err := b.Add(in)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if in.ID != 42 {
			t.Errorf("argument id changed to %d", in.ID)
		}
		if added.ID == 42 {
			t.Error("backend kept the caller-supplied id")
		}
	})

	t.Run("getAll returns added tasks in id order", func(t *testing.T) {
		b := newBackend(t)
		titles := []string{"one", "two", "three", "four"}
		var ids []int64
		for _, title := range titles {
			added, err := b.Add(storage.NewTask(title, "", storage.StateToDo))
			if err != nil {
				t.Fatalf("Add(%q): %v", title, err)
			}
			ids = append(ids, added.ID)
		}

		tasks, err := b.GetAll()
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		if len(tasks) != len(titles) {
			t.Fatalf("GetAll: got %d tasks, want %d", len(tasks), len(titles))
		}
		for i, task := range tasks {
			if task.ID != ids[i] || task.Title != titles[i] {
				t.Errorf("tasks[%d] = %+v, want id %d title %q", i, task, ids[i], titles[i])
			}
			if i > 0 && task.ID <= tasks[i-1].ID {
				t.Errorf("ids not increasing: %d after %d", task.ID, tasks[i-1].ID)
			}
		}
	})

	t.Run("getById returns added fields", func(t *testing.T) {
		b := newBackend(t)
		in := storage.NewTask("Write report", "line one\nline two", storage.StateInProgress)
		added, err := b.Add(in)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}

		got, ok, err := b.GetByID(added.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if !ok {
			t.Fatal("GetByID: task not found")
		}
		if got.Title != in.Title || got.Description != in.Description || got.State != in.State {
			t.Errorf("GetByID = %+v, want fields of %+v", got, in)
		}
	})

	t.Run("getById on unknown id is absent", func(t *testing.T) {
		b := newBackend(t)
		_, ok, err := b.GetByID(999)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if ok {
			t.Error("GetByID(999) found a task in an empty backend")
		}
	})

	t.Run("update replaces all fields and keeps id", func(t *testing.T) {
		b := newBackend(t)
		added, err := b.Add(storage.NewTask("Buy milk", "2% milk", storage.StateToDo))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}

		changed := storage.Task{ID: added.ID, Title: "Buy oat milk", Description: "", State: storage.StateInProgress}
		if err := b.Update(changed); err != nil {
			t.Fatalf("Update: %v", err)
		}

		got, ok, err := b.GetByID(added.ID)
		if err != nil || !ok {
			t.Fatalf("GetByID: ok=%v err=%v", ok, err)
		}
		if got != changed {
			t.Errorf("after Update got %+v, want %+v", got, changed)
		}
	})

	t.Run("update of unknown id is a no-op", func(t *testing.T) {
		b := newBackend(t)
		if err := b.Update(storage.Task{ID: 77, Title: "ghost"}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		tasks, err := b.GetAll()
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("Update created %d tasks, want 0", len(tasks))
		}
	})

	t.Run("deleteById removes only that task", func(t *testing.T) {
		b := newBackend(t)
		first, _ := b.Add(storage.NewTask("first", "", storage.StateToDo))
		second, _ := b.Add(storage.NewTask("second", "", storage.StateToDo))

		if err := b.DeleteByID(first.ID); err != nil {
			t.Fatalf("DeleteByID: %v", err)
		}

		if _, ok, _ := b.GetByID(first.ID); ok {
			t.Error("deleted task still present")
		}
		if _, ok, _ := b.GetByID(second.ID); !ok {
			t.Error("other task was removed")
		}
	})

	t.Run("deleteById on unknown id succeeds", func(t *testing.T) {
		b := newBackend(t)
		if err := b.DeleteByID(12345); err != nil {
			t.Errorf("DeleteByID unknown: %v", err)
		}
	})

	t.Run("deleteAll empties the store", func(t *testing.T) {
		b := newBackend(t)
		for i := 0; i < 3; i++ {
			if _, err := b.Add(storage.NewTask("t", "", storage.StateCompleted)); err != nil {
				t.Fatalf("Add: %v", err)
			}
		}

		if err := b.DeleteAll(); err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}

		tasks, err := b.GetAll()
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("GetAll after DeleteAll = %v, want empty non-nil slice", tasks)
		}
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		b := newBackend(t)
		first, _ := b.Add(storage.NewTask("first", "", storage.StateToDo))
		second, _ := b.Add(storage.NewTask("second", "", storage.StateToDo))
		if err := b.DeleteByID(second.ID); err != nil {
			t.Fatalf("DeleteByID: %v", err)
		}
		third, err := b.Add(storage.NewTask("third", "", storage.StateToDo))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if third.ID <= second.ID || third.ID == first.ID {
			t.Errorf("third id = %d, want > %d", third.ID, second.ID)
		}
	})
}
