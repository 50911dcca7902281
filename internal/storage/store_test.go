package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/experiment"
)

func testResult() *experiment.Result {
	return &experiment.Result{
		StepsTaken: 2,
		Duration:   3 * time.Millisecond,
		Names:      []string{"spread", "dropped"},
		Series: map[string][]float64{
			"spread":  {1.5, 2.25},
			"dropped": {0, 1},
		},
		Metrics: map[string]float64{"spread": 2.25, "dropped": 1},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Preset: "galaxy", Seed: 42, Entities: 3}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "galaxy" || meta.Seed != 42 || meta.Steps != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["spread"] != 2.25 {
		t.Errorf("expected spread 2.25, got %f", meta.Metrics["spread"])
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(series.Steps) != 2 || series.Steps[1] != 2 {
		t.Errorf("unexpected steps %v", series.Steps)
	}
	if got := series.Values["dropped"]; len(got) != 2 || got[1] != 1 {
		t.Errorf("unexpected dropped series %v", got)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(RunMetadata{}, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// preset files live beside runs and must not be listed as runs
	if err := NewPresetStore(dir).Save("mine", config.DefaultConfig()); err != nil {
		t.Fatalf("preset save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Preset != "custom" {
		t.Errorf("unnamed runs should be stored as custom, got %s", runs[0].Preset)
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runID, err := st.Save(RunMetadata{Preset: "calm"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "series.csv"} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestPresetStore(t *testing.T) {
	ps := NewPresetStore(t.TempDir())

	cfg := config.GetPreset("drift")
	cfg.Seed = 99
	if err := ps.Save("windy", cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := ps.Load("windy")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "windy" || loaded.Seed != 99 {
		t.Errorf("unexpected preset %s seed %d", loaded.Name, loaded.Seed)
	}
	if len(loaded.Mutators) != len(cfg.Mutators) {
		t.Errorf("mutators lost: %d vs %d", len(loaded.Mutators), len(cfg.Mutators))
	}

	names, err := ps.List()
	if err != nil || len(names) != 1 || names[0] != "windy" {
		t.Errorf("unexpected list %v (%v)", names, err)
	}

	if err := ps.Delete("windy"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := ps.Load("windy"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("expected ErrPresetNotFound, got %v", err)
	}
	if err := ps.Delete("windy"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("expected ErrPresetNotFound on second delete, got %v", err)
	}
}

func TestPresetStoreBuiltinFallback(t *testing.T) {
	ps := NewPresetStore(t.TempDir())

	cfg, err := ps.Load("galaxy")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Name != "galaxy" {
		t.Errorf("expected galaxy, got %s", cfg.Name)
	}
}

func TestPresetStoreRejects(t *testing.T) {
	ps := NewPresetStore(t.TempDir())

	if err := ps.Save("../escape", config.DefaultConfig()); err == nil {
		t.Error("expected error for path-like name")
	}

	bad := config.DefaultConfig()
	bad.Steps = -1
	if err := ps.Save("bad", bad); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}
