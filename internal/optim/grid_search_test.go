package optim

import (
	"context"
	"testing"

	"github.com/san-kum/partsim/internal/config"
)

func driftConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Seed = 11
	cfg.Steps = 20
	return cfg
}

func TestGridSearchMinimize(t *testing.T) {
	g, err := NewGridSearch([]string{"drag", "amount"}, [][]float64{{0, 0.2, 0.5}, {5, 10}})
	if err != nil {
		t.Fatal(err)
	}

	best, trials, err := g.Search(context.Background(), driftConfig(), "mean_speed")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(trials) != 6 {
		t.Fatalf("expected 6 trials, got %d", len(trials))
	}
	if best.Params["drag"] != 0.5 {
		t.Errorf("highest drag should minimise speed, got %v", best.Params)
	}
	for _, tr := range trials {
		if tr.Value < best.Value {
			t.Errorf("trial %v beats best %v", tr, best)
		}
	}
}

func TestGridSearchMaximize(t *testing.T) {
	g, err := NewGridSearch([]string{"drag"}, [][]float64{{0, 0.5}})
	if err != nil {
		t.Fatal(err)
	}

	best, _, err := g.Maximize().Search(context.Background(), driftConfig(), "mean_speed")
	if err != nil {
		t.Fatal(err)
	}
	if best.Params["drag"] != 0 {
		t.Errorf("zero drag should maximise speed, got %v", best.Params)
	}
}

func TestGridSearchDoesNotMutateBase(t *testing.T) {
	base := driftConfig()
	g, _ := NewGridSearch([]string{"amount"}, [][]float64{{3}})
	if _, _, err := g.Search(context.Background(), base, "spread"); err != nil {
		t.Fatal(err)
	}
	if base.Entities.Amount != config.DefaultAmount {
		t.Errorf("base amount changed to %d", base.Entities.Amount)
	}
}

func TestGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"gravity"}, [][]float64{{1}}); err == nil {
		t.Error("expected error for unknown param")
	}
	if _, err := NewGridSearch([]string{"drag"}, nil); err == nil {
		t.Error("expected error for mismatched ranges")
	}
	if _, err := NewGridSearch([]string{"drag"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}

	g, _ := NewGridSearch([]string{"drag"}, [][]float64{{0.1}})
	if _, _, err := g.Search(context.Background(), driftConfig(), "no_such_metric"); err == nil {
		t.Error("expected error for unrecorded metric")
	}

	// negative amount fails validation, so no point completes
	g, _ = NewGridSearch([]string{"amount"}, [][]float64{{-1}})
	if _, _, err := g.Search(context.Background(), driftConfig(), "spread"); err == nil {
		t.Error("expected error when every point fails")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, _ = NewGridSearch([]string{"drag"}, [][]float64{{0.1, 0.2}})
	if _, _, err := g.Search(ctx, driftConfig(), "spread"); err == nil {
		t.Error("expected error on canceled context")
	}
}

func TestListParams(t *testing.T) {
	names := ListParams()
	if len(names) != len(Params) {
		t.Fatalf("expected %d params, got %d", len(Params), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("params not sorted: %v", names)
		}
	}
}
