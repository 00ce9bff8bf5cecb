// Package storage archives finished runs: their metadata and the
// composition at every report time.
package storage

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/transmute/internal/depletion"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/universe"
)

// ErrNotFound indicates an unknown run id.
var ErrNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	RelTol     float64            `json:"rel_tol"`
	AbsTol     float64            `json:"abs_tol"`
	Isotopes   int                `json:"isotopes"`
	NonZeros   int                `json:"nonzeros"`
	Times      []float64          `json:"times"`
	Steps      int                `json:"steps"`
	Rejected   int                `json:"rejected"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Snapshot is one stored composition. Time 0 holds the initial composition.
type Snapshot struct {
	Time        float64
	Composition map[isotope.ID]float64
}

// Archive persists runs. Implementations are safe for use by one process.
type Archive interface {
	Save(ctx context.Context, out *depletion.Outcome) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, id string) (*RunMetadata, error)
	LoadComposition(ctx context.Context, id string) ([]Snapshot, error)
	Close() error
}

// Open returns the archive of the given kind rooted at dir.
func Open(kind, dir string) (Archive, error) {
	switch kind {
	case "fs", "":
		fs := NewFileStore(dir)
		if err := fs.Init(); err != nil {
			return nil, err
		}
		return fs, nil
	case "sqlite":
		return OpenSQLite(dir)
	}
	return nil, fmt.Errorf("unknown store: %s", kind)
}

// newRecord flattens an outcome into metadata and snapshots, the initial
// composition first.
func newRecord(out *depletion.Outcome) (RunMetadata, []Snapshot) {
	accepted, rejected := out.Steps()
	meta := RunMetadata{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Name:       out.Config.Name,
		Timestamp:  time.Now().UTC(),
		Integrator: out.Config.Integrator,
		RelTol:     out.Config.Solver.RelTol,
		AbsTol:     out.Config.Solver.AbsTol,
		Isotopes:   out.Universe.Len(),
		NonZeros:   out.NonZeros,
		Times:      make([]float64, 0, len(out.Snapshots)),
		Steps:      accepted,
		Rejected:   rejected,
		Metrics:    map[string]float64{},
	}
	snaps := make([]Snapshot, 0, len(out.Snapshots)+1)
	snaps = append(snaps, Snapshot{Time: 0, Composition: out.Initial})
	for _, s := range out.Snapshots {
		meta.Times = append(meta.Times, s.Time)
		snaps = append(snaps, Snapshot{Time: s.Time, Composition: s.Composition})
	}
	if n := len(out.Snapshots); n > 0 {
		maps.Copy(meta.Metrics, out.Snapshots[n-1].Result.Metrics)
	}
	return meta, snaps
}

// sortedIDs returns the composition keys in universe order.
func sortedIDs(comp map[isotope.ID]float64) []isotope.ID {
	return slices.SortedFunc(maps.Keys(comp), universe.Compare)
}
