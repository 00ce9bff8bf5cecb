// Package metrics provides solver metrics and observers.
package metrics

import (
	"math"

	"github.com/san-kum/transmute/internal/dynamo"
)

// InventoryDrift tracks the largest relative change of total inventory
// against the first observation. For a closed network (no fission, no
// reactions leaving the universe) it should stay at rounding level.
type InventoryDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewInventoryDrift() *InventoryDrift {
	return &InventoryDrift{name: "inventory_drift"}
}

func (d *InventoryDrift) Name() string { return d.name }

func (d *InventoryDrift) Observe(x dynamo.State, t float64) {
	total := x.Sum()
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(total-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *InventoryDrift) Value() float64 { return d.maxDrift }

func (d *InventoryDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// MinQuantity records the most negative entry seen, or zero.
type MinQuantity struct {
	name string
	min  float64
}

func NewMinQuantity() *MinQuantity {
	return &MinQuantity{name: "min_quantity"}
}

func (m *MinQuantity) Name() string { return m.name }

func (m *MinQuantity) Observe(x dynamo.State, t float64) {
	for _, v := range x {
		if v < m.min {
			m.min = v
		}
	}
}

func (m *MinQuantity) Value() float64 { return m.min }
func (m *MinQuantity) Reset()         { m.min = 0 }

// Negativity is the fraction of observations holding an entry below
// -threshold.
type Negativity struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewNegativity(threshold float64) *Negativity {
	return &Negativity{
		name:      "negativity",
		threshold: threshold,
	}
}

func (n *Negativity) Name() string { return n.name }

func (n *Negativity) Observe(x dynamo.State, t float64) {
	n.samples++
	for _, v := range x {
		if v < -n.threshold {
			n.violations++
			break
		}
	}
}

func (n *Negativity) Value() float64 {
	if n.samples == 0 {
		return 0
	}
	return float64(n.violations) / float64(n.samples)
}

func (n *Negativity) Reset() {
	n.violations = 0
	n.samples = 0
}
