package board

import (
	"math/rand"
	"testing"

	"github.com/existflow/weekplan/internal/model"
)

// randomOps drives a board through random operations and checks the
// structural invariants and task conservation after each step.
func TestRandomOperationsPreserveInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		b := newTestBoard()
		alive := make(map[string]bool)

		for step := 0; step < 300; step++ {
			b = randomStep(t, rng, b, alive)
			checkInvariants(t, b)
			checkConservation(t, b, alive)
		}
	}
}

func randomStep(t *testing.T, rng *rand.Rand, b *Board, alive map[string]bool) *Board {
	t.Helper()
	projects := b.Projects()
	containers := model.Containers()
	anyProject := func() string {
		if len(projects) == 0 {
			return "missing"
		}
		return projects[rng.Intn(len(projects))].ID
	}
	activeTasks := func() []model.Task {
		var out []model.Task
		for _, c := range containers {
			out = append(out, b.Tasks(c)...)
		}
		return out
	}

	switch op := rng.Intn(10); op {
	case 0:
		nb, _, err := b.AddProject("p", model.Palette[rng.Intn(len(model.Palette))].Name)
		if err != nil {
			t.Fatalf("AddProject: %v", err)
		}
		return nb
	case 1:
		nb, err := b.DeleteProject(anyProject())
		if err == nil {
			return nb
		}
		if !IsConflict(err) && !IsNotFound(err) {
			t.Fatalf("DeleteProject: %v", err)
		}
		return b
	case 2, 3:
		c := containers[rng.Intn(len(containers))]
		nb, task, err := b.AddTask(model.NewTask{Title: "t", ProjectID: anyProject(), Container: c})
		if err == nil {
			alive[task.ID] = true
			return nb
		}
		return b
	case 4, 5:
		tasks := activeTasks()
		var item string
		var source model.Container
		if len(projects) > 0 && rng.Intn(4) == 0 {
			item, source = anyProject(), model.Master
		} else if len(tasks) > 0 {
			task := tasks[rng.Intn(len(tasks))]
			item, source = task.ID, task.Container
		}
		targets := append(containers, "", "bogus")
		target := targets[rng.Intn(len(targets))]
		anchors := []string{"", string(target), anyProject()}
		for _, task := range b.Tasks(target) {
			anchors = append(anchors, task.ID)
		}
		m := model.Move{ItemID: item, Source: source, Target: target, AnchorID: anchors[rng.Intn(len(anchors))]}
		if rng.Intn(3) == 0 {
			m.NewProjectID = anyProject()
		}
		return b.Move(m)
	case 6:
		tasks := activeTasks()
		if len(tasks) == 0 {
			return b
		}
		id := tasks[rng.Intn(len(tasks))].ID
		var nb *Board
		var err error
		if rng.Intn(2) == 0 {
			nb, _, err = b.CompleteTask(id)
		} else {
			nb, _, err = b.DeleteTask(id)
		}
		if err != nil {
			t.Fatalf("archive %s: %v", id, err)
		}
		return nb
	case 7:
		deleted := b.Deleted()
		if len(deleted) == 0 {
			return b
		}
		id := deleted[rng.Intn(len(deleted))].Task.ID
		if rng.Intn(3) == 0 {
			nb, err := b.PermanentlyDelete(id)
			if err != nil {
				t.Fatalf("PermanentlyDelete: %v", err)
			}
			delete(alive, id)
			return nb
		}
		if nb, _, err := b.RestoreTask(id); err == nil {
			return nb
		}
		return b
	case 8:
		completed := b.Completed()
		if len(completed) == 0 {
			return b
		}
		if nb, _, err := b.MarkIncomplete(completed[rng.Intn(len(completed))].Task.ID); err == nil {
			return nb
		}
		return b
	default:
		tasks := activeTasks()
		if len(tasks) == 0 {
			return b
		}
		pid := anyProject()
		if nb, err := b.EditTask(tasks[rng.Intn(len(tasks))].ID, model.TaskPatch{ProjectID: &pid}); err == nil {
			return nb
		}
		return b
	}
}

func checkConservation(t *testing.T, b *Board, alive map[string]bool) {
	t.Helper()
	count := make(map[string]int)
	for _, c := range model.Containers() {
		for _, task := range b.Tasks(c) {
			count[task.ID]++
		}
	}
	for _, r := range b.Deleted() {
		count[r.Task.ID]++
	}
	for _, r := range b.Completed() {
		count[r.Task.ID]++
	}
	if len(count) != len(alive) {
		t.Fatalf("board tracks %d tasks, want %d", len(count), len(alive))
	}
	for id := range alive {
		if count[id] != 1 {
			t.Fatalf("task %s appears %d times", id, count[id])
		}
	}
}

func TestSelfAnchoredMoveIsNoOp(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := newTestBoard()
	alive := make(map[string]bool)
	for i := 0; i < 100; i++ {
		b = randomStep(t, rng, b, alive)
	}
	for _, c := range model.Containers() {
		for _, task := range b.Tasks(c) {
			m := model.Move{ItemID: task.ID, Source: c, Target: c, AnchorID: task.ID}
			if got := b.Move(m); got != b {
				t.Fatalf("self move of %s changed the board", task.ID)
			}
		}
	}
	for _, p := range b.Projects() {
		m := model.Move{ItemID: p.ID, Source: model.Master, Target: model.Master, AnchorID: p.ID}
		if got := b.Move(m); got != b {
			t.Fatalf("self move of project %s changed the board", p.ID)
		}
	}
}
