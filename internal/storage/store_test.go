package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/san-kum/transmute/internal/config"
	"github.com/san-kum/transmute/internal/depletion"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/sim"
	"github.com/san-kum/transmute/internal/universe"
)

var (
	h3  = isotope.MustParse("H3")
	he3 = isotope.MustParse("He3")
)

func outcome() *depletion.Outcome {
	return &depletion.Outcome{
		Config:   config.GetPreset("tritium"),
		Universe: universe.FromIDs([]isotope.ID{h3, he3}),
		Initial:  map[isotope.ID]float64{h3: 1},
		NonZeros: 2,
		Snapshots: []depletion.Snapshot{
			{
				Time:        1e8,
				Composition: map[isotope.ID]float64{h3: 0.8367, he3: 0.1633},
				Result:      &sim.Result{Steps: 40, Rejected: 2, Metrics: map[string]float64{"inventory_drift": 1e-16}},
			},
			{
				Time:        3.15576e8,
				Composition: map[isotope.ID]float64{h3: 0.5697, he3: 0.4303},
				Result:      &sim.Result{Steps: 50, Rejected: 1, Metrics: map[string]float64{"inventory_drift": 2e-16}},
			},
		},
	}
}

func archives(t *testing.T) map[string]Archive {
	t.Helper()
	fs := NewFileStore(filepath.Join(t.TempDir(), "runs"))
	if err := fs.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	db, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Archive{"fs": fs, "sqlite": db}
}

func TestArchiveSaveLoad(t *testing.T) {
	ctx := context.Background()
	for name, st := range archives(t) {
		t.Run(name, func(t *testing.T) {
			runID, err := st.Save(ctx, outcome())
			if err != nil {
				t.Fatalf("save failed: %v", err)
			}
			parsed, err := uuid.Parse(runID)
			if err != nil || parsed.Version() != 7 {
				t.Errorf("expected a v7 uuid, got %q (%v)", runID, err)
			}

			meta, err := st.Load(ctx, runID)
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if meta.Name != "tritium" || meta.Integrator != "rosenbrock" {
				t.Errorf("unexpected metadata %+v", meta)
			}
			if meta.Steps != 90 || meta.Rejected != 3 {
				t.Errorf("expected 90/3 steps, got %d/%d", meta.Steps, meta.Rejected)
			}
			if meta.Metrics["inventory_drift"] != 2e-16 {
				t.Errorf("expected final metrics, got %v", meta.Metrics)
			}
			if len(meta.Times) != 2 || meta.Times[1] != 3.15576e8 {
				t.Errorf("unexpected times %v", meta.Times)
			}

			snaps, err := st.LoadComposition(ctx, runID)
			if err != nil {
				t.Fatalf("load composition failed: %v", err)
			}
			if len(snaps) != 3 {
				t.Fatalf("expected 3 snapshots, got %d", len(snaps))
			}
			if snaps[0].Time != 0 || snaps[0].Composition[h3] != 1 {
				t.Errorf("first snapshot should be the initial composition, got %+v", snaps[0])
			}
			if snaps[2].Composition[he3] != 0.4303 {
				t.Errorf("expected he3 0.4303, got %g", snaps[2].Composition[he3])
			}
		})
	}
}

func TestArchiveList(t *testing.T) {
	ctx := context.Background()
	for name, st := range archives(t) {
		t.Run(name, func(t *testing.T) {
			runs, err := st.List(ctx)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(runs) != 0 {
				t.Errorf("expected 0 runs, got %d", len(runs))
			}

			first, err := st.Save(ctx, outcome())
			if err != nil {
				t.Fatalf("save failed: %v", err)
			}
			second, err := st.Save(ctx, outcome())
			if err != nil {
				t.Fatalf("save failed: %v", err)
			}

			runs, err = st.List(ctx)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(runs) != 2 {
				t.Fatalf("expected 2 runs, got %d", len(runs))
			}
			if runs[0].ID != first || runs[1].ID != second {
				t.Errorf("runs should list oldest first: %s, %s", runs[0].ID, runs[1].ID)
			}
		})
	}
}

func TestArchiveNotFound(t *testing.T) {
	ctx := context.Background()
	for name, st := range archives(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
			if _, err := st.LoadComposition(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFileStoreStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := NewFileStore(tmpDir)

	runID, err := st.Save(context.Background(), outcome())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, file := range []string{"metadata.json", "composition.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, file)); os.IsNotExist(err) {
			t.Errorf("%s not created", file)
		}
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, runID, "composition.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "time,isotope,quantity\n0,H3,1\n1e+08,H3,0.8367\n1e+08,He3,0.1633\n3.15576e+08,H3,0.5697\n3.15576e+08,He3,0.4303\n"
	if string(data) != want {
		t.Errorf("unexpected composition.csv:\n%s", data)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"fs", "sqlite"} {
		st, err := Open(kind, filepath.Join(dir, kind))
		if err != nil {
			t.Fatalf("open %s: %v", kind, err)
		}
		st.Close()
	}
	if _, err := Open("s3", dir); err == nil {
		t.Error("expected error for unknown store kind")
	}
}
