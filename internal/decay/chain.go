package decay

import (
	"math"
	"slices"

	"github.com/san-kum/transmute/internal/isotope"
)

// UnitDecay returns, for every isotope X reachable from id by decay (id
// included), the fraction of one unit of the original progenitor that exists
// as X after time t.
//
// ancestors holds the decay constants on the path from the original
// progenitor down to, but excluding, id; pass nil when id is the progenitor.
// Contributions arriving through different branches of the decay tree are
// summed. Spontaneous-fission channels are not followed.
func (l *Library) UnitDecay(id isotope.ID, t float64, ancestors []float64) (map[isotope.ID]float64, error) {
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return nil, ErrNegativeTime
	}
	out := make(map[isotope.ID]float64)
	lambdas := make([]float64, len(ancestors), len(ancestors)+16)
	copy(lambdas, ancestors)
	if err := l.walk(id, t, lambdas, nil, 1, out); err != nil {
		return nil, err
	}
	return out, nil
}

// walk adds weight*fraction(id) into out and descends into every decay
// channel. weight is the product of branching ratios along the path, which
// is the same as scaling each sub-result by its channel's branching ratio.
//
// Siblings append into the shared backing arrays of lambdas and path at the
// same index; a callee never reads past its own length so this is safe.
func (l *Library) walk(id isotope.ID, t float64, lambdas []float64, path []isotope.ID, weight float64, out map[isotope.ID]float64) error {
	path = append(path, id)
	if len(path) > MaxChainDepth {
		return &ChainError{Path: slices.Clone(path), Wrapped: ErrChainTooDeep}
	}

	rec := l.Record(id)
	lambdas = append(lambdas, rec.DecayConst)

	frac, err := l.chainFraction(lambdas, t, path)
	if err != nil {
		return err
	}
	out[id] += weight * frac

	for _, ch := range rec.Channels {
		if ch.IsFission() {
			continue
		}
		if err := l.walk(ch.Daughter, t, lambdas, path, weight*ch.Branching, out); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) chainFraction(lambdas []float64, t float64, path []isotope.ID) (float64, error) {
	if hasRepeat(lambdas) {
		if l.policy != ConfluentLimit {
			return 0, &ChainError{Path: slices.Clone(path), Wrapped: ErrDegenerateChain}
		}
		return confluentFraction(lambdas, t), nil
	}
	return batemanFraction(lambdas, t), nil
}

// batemanFraction evaluates the closed-form population of the last member of
// a linear chain with distinct decay constants:
//
//	Σ_i λ_i'·e^(-λ_i·t)·Π_{k≠i} λ_k'/(λ_k-λ_i)  /  λ_n'
//
// where λ' is λ, or 1 for a stable member.
func batemanFraction(lambdas []float64, t float64) float64 {
	sum := 0.0
	for i, li := range lambdas {
		term := prime(li) * math.Exp(-li*t)
		for k, lk := range lambdas {
			if k == i {
				continue
			}
			term *= prime(lk) / (lk - li)
		}
		sum += term
	}
	frac := sum / prime(lambdas[len(lambdas)-1])
	return math.Max(frac, 0)
}

// confluentFraction evaluates the same quantity through divided differences
// of g(x) = e^(-x·t), which stay defined when nodes repeat:
//
//	Π_{k<n} λ_k' · (-1)^(n-1) · g[λ_1..λ_n]
//
// Equal nodes use g[x,..,x] (k+1 copies) = g⁽ᵏ⁾(x)/k! = (-t)^k·e^(-x·t)/k!.
func confluentFraction(lambdas []float64, t float64) float64 {
	n := len(lambdas)
	x := slices.Clone(lambdas)
	slices.Sort(x)

	dd := make([]float64, n)
	for i, xi := range x {
		dd[i] = math.Exp(-xi * t)
	}
	for k := 1; k < n; k++ {
		for i := n - 1; i >= k; i-- {
			if x[i] == x[i-k] {
				dd[i] = math.Pow(-t, float64(k)) * math.Exp(-x[i]*t) / factorial(k)
			} else {
				dd[i] = (dd[i] - dd[i-1]) / (x[i] - x[i-k])
			}
		}
	}

	frac := dd[n-1]
	if (n-1)%2 == 1 {
		frac = -frac
	}
	for _, lk := range lambdas[:n-1] {
		frac *= prime(lk)
	}
	return math.Max(frac, 0)
}

func prime(lambda float64) float64 {
	if lambda > 0 {
		return lambda
	}
	return 1
}

func hasRepeat(lambdas []float64) bool {
	for i := 1; i < len(lambdas); i++ {
		for k := 0; k < i; k++ {
			if lambdas[i] == lambdas[k] {
				return true
			}
		}
	}
	return false
}

func factorial(k int) float64 {
	f := 1.0
	for i := 2; i <= k; i++ {
		f *= float64(i)
	}
	return f
}
