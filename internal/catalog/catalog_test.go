package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stagegate/internal/catalog"
)

func TestBuiltInOrderingIsStable(t *testing.T) {
	c := catalog.BuiltIn()

	first := c.All()
	second := c.All()
	if len(first) != len(second) || len(first) != c.Len() {
		t.Fatalf("unstable stage counts: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("stage order changed between calls at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
		if first[i].Ordinal != i {
			t.Fatalf("stage %q has ordinal %d, expected %d", first[i].ID, first[i].Ordinal, i)
		}
	}
	if c.First().ID != "initial_contact" {
		t.Fatalf("unexpected first stage: %q", c.First().ID)
	}
	if c.Terminal().ID != "documentation" {
		t.Fatalf("unexpected terminal stage: %q", c.Terminal().ID)
	}
}

func TestNextChainTerminatesAtTerminal(t *testing.T) {
	c := catalog.BuiltIn()

	current := c.First()
	steps := 0
	for {
		next, ok, err := c.Next(current.ID)
		if err != nil {
			t.Fatalf("Next(%q) failed: %v", current.ID, err)
		}
		if !ok {
			break
		}
		if next.Ordinal != current.Ordinal+1 {
			t.Fatalf("Next(%q) skipped ordinals: %d -> %d", current.ID, current.Ordinal, next.Ordinal)
		}
		current = next
		steps++
		if steps > c.Len() {
			t.Fatal("Next chain did not terminate")
		}
	}
	if current.ID != c.Terminal().ID {
		t.Fatalf("chain ended at %q, expected terminal %q", current.ID, c.Terminal().ID)
	}

	terminal, err := c.IsTerminal(current.ID)
	if err != nil || !terminal {
		t.Fatalf("IsTerminal(%q) = %v, %v", current.ID, terminal, err)
	}
}

func TestUnknownStage(t *testing.T) {
	c := catalog.BuiltIn()

	if _, err := c.Stage("no_such_stage"); !errors.Is(err, catalog.ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
	if _, _, err := c.Next("no_such_stage"); !errors.Is(err, catalog.ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage from Next, got %v", err)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := catalog.New([]catalog.Stage{
		{ID: "a", Title: "A"},
		{ID: "a", Title: "A again"},
	})
	if err == nil {
		t.Fatal("expected duplicate stage id error")
	}

	_, err = catalog.New([]catalog.Stage{
		{ID: "a", SubTasks: []catalog.SubTask{{ID: "t"}}},
		{ID: "b", SubTasks: []catalog.SubTask{{ID: "t"}}},
	})
	if err == nil {
		t.Fatal("expected duplicate sub-task id error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	contents := `
[[stages]]
id = "intake"
title = "Intake"

[[stages.subtasks]]
id = "form"
title = "Application form"
required = true
sources = ["intake"]

[[stages]]
id = "decision"
title = "Decision"

[[stages.subtasks]]
id = "verdict"
title = "Final verdict"
required = true
sources = ["underwriting"]
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := catalog.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 stages, got %d", c.Len())
	}
	stage, err := c.Stage("intake")
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	if len(stage.SubTasks) != 1 || !stage.SubTasks[0].Required {
		t.Fatalf("unexpected sub-tasks: %+v", stage.SubTasks)
	}
}

func TestResolveFallsBackToBuiltIn(t *testing.T) {
	c, err := catalog.Resolve("")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if c.Len() != catalog.BuiltIn().Len() {
		t.Fatal("expected built-in catalog")
	}
}
