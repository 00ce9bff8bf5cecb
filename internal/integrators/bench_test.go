package integrators

import (
	"testing"

	"github.com/san-kum/transmute/internal/dynamo"
)

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(dyn, x, 0, 0.01)
	}
}

func longChain(b *testing.B, n int) *dynamo.LinearODE {
	lambdas := make([]float64, n)
	for i := range lambdas {
		lambdas[i] = float64(i%13+1) * 1e-3 * float64(int(1)<<(i%20))
	}
	return chain(b, lambdas...)
}

func BenchmarkRosenbrock_Chain3000(b *testing.B) {
	sys := longChain(b, 3000)
	x := make(dynamo.State, sys.StateDim())
	x[0] = 1

	integrator := NewRosenbrock()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, _ = integrator.Step(sys, x, 0, 1)
	}
}

func BenchmarkRosenbrock_Refactor(b *testing.B) {
	sys := longChain(b, 3000)
	x := make(dynamo.State, sys.StateDim())
	x[0] = 1

	integrator := NewRosenbrock()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = integrator.Step(sys, x, 0, 1+float64(i%2))
	}
}
