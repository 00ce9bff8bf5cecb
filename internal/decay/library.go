package decay

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/transmute/internal/isotope"
)

// MaxChainDepth bounds the decay-tree walk. Physical chains are a few dozen
// members long; anything deeper is cyclic data.
const MaxChainDepth = 256

// DegeneratePolicy selects how UnitDecay treats a decay path on which two
// members share an identical decay constant.
type DegeneratePolicy int

const (
	// RejectDegenerate returns ErrDegenerateChain.
	RejectDegenerate DegeneratePolicy = iota
	// ConfluentLimit evaluates the path with the repeated-root limit of the
	// closed-form solution.
	ConfluentLimit
)

// Option configures a Library.
type Option func(*Library)

// WithDegeneratePolicy sets the repeated-decay-constant policy.
func WithDegeneratePolicy(p DegeneratePolicy) Option {
	return func(l *Library) { l.policy = p }
}

// Library is an immutable collection of decay records keyed by isotope.
// It is safe for concurrent readers.
type Library struct {
	records map[isotope.ID]Record
	policy  DegeneratePolicy
}

// NewLibrary indexes records by their own isotope key.
func NewLibrary(records []Record, opts ...Option) (*Library, error) {
	l := &Library{records: make(map[isotope.ID]Record, len(records))}
	for _, r := range records {
		id := r.ID()
		if _, dup := l.records[id]; dup {
			return nil, &RecordError{ID: id, Wrapped: ErrDuplicateRecord}
		}
		l.records[id] = r
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Record returns the decay record for id. An isotope without decay data is
// reported as a stable record with no channels.
func (l *Library) Record(id isotope.ID) Record {
	if r, ok := l.records[id]; ok {
		return r
	}
	s, z, a := id.Decode()
	return Record{Z: z, A: a, S: s}
}

// Has reports whether the library carries data for id.
func (l *Library) Has(id isotope.ID) bool {
	_, ok := l.records[id]
	return ok
}

// DecayConst returns λ for id, 0 when the isotope is stable or unknown.
func (l *Library) DecayConst(id isotope.ID) float64 {
	return l.records[id].DecayConst
}

func (l *Library) Len() int { return len(l.records) }

// IDs returns every isotope with a record, in ascending key order.
func (l *Library) IDs() []isotope.ID {
	ids := make([]isotope.ID, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AllDaughters returns every isotope reachable from id by decay, excluding
// the spontaneous-fission sentinel. id itself is only included when a decay
// path leads back to it.
func (l *Library) AllDaughters(id isotope.ID) map[isotope.ID]struct{} {
	seen := make(map[isotope.ID]struct{})
	stack := []isotope.ID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ch := range l.Record(cur).Channels {
			if ch.IsFission() {
				continue
			}
			if _, ok := seen[ch.Daughter]; ok {
				continue
			}
			seen[ch.Daughter] = struct{}{}
			stack = append(stack, ch.Daughter)
		}
	}
	return seen
}

// UnitDecayAll runs UnitDecay(id, t, nil) for every id concurrently. The
// walks share nothing but the immutable library.
func (l *Library) UnitDecayAll(ctx context.Context, ids []isotope.ID, t float64) (map[isotope.ID]map[isotope.ID]float64, error) {
	results := make([]map[isotope.ID]float64, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := l.UnitDecay(id, t, nil)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[isotope.ID]map[isotope.ID]float64, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

// Decay superposes UnitDecay over an initial composition and returns the
// composition after time t.
func (l *Library) Decay(ctx context.Context, composition map[isotope.ID]float64, t float64) (map[isotope.ID]float64, error) {
	ids := make([]isotope.ID, 0, len(composition))
	for id := range composition {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	unit, err := l.UnitDecayAll(ctx, ids, t)
	if err != nil {
		return nil, err
	}

	out := make(map[isotope.ID]float64)
	for _, parent := range ids {
		qty := composition[parent]
		for x, frac := range unit[parent] {
			out[x] += qty * frac
		}
	}
	return out, nil
}
