package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/transmute/internal/dynamo"
)

type oscillator struct{}

func (o *oscillator) StateDim() int { return 2 }

func (o *oscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &oscillator{}
	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		var err error
		x, err = integrator.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
	if math.Abs(x[0]-math.Cos(10)) > 1e-8 {
		t.Errorf("x(10) = %v, want %v", x[0], math.Cos(10))
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &oscillator{}
	x0 := dynamo.State{1.0, 0.0}
	tol := dynamo.Tolerance{Rel: 1e-8, Abs: 1e-10}

	res, err := integrator.StepAdaptive(dyn, x0, 0, 0.01, tol)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if !res.Accepted() {
		t.Fatalf("step rejected with error norm %g", res.ErrNorm)
	}
	if !res.State.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if res.NextDt <= 0.01 {
		t.Errorf("an easy step should grow dt, got %f", res.NextDt)
	}
}

func TestRK45_AdaptiveStepRejects(t *testing.T) {
	integrator := NewRK45()
	tol := dynamo.Tolerance{Rel: 1e-8, Abs: 1e-10}

	res, err := integrator.StepAdaptive(&oscillator{}, dynamo.State{1.0, 0.0}, 0, 0.1, tol)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if res.Accepted() {
		t.Fatalf("step accepted with error norm %g", res.ErrNorm)
	}
	if res.ErrNorm <= 1 {
		t.Errorf("rejected step should report ErrNorm > 1, got %g", res.ErrNorm)
	}
	if res.NextDt <= 0 || res.NextDt >= 0.1 {
		t.Errorf("rejected step should shrink dt, got %f", res.NextDt)
	}
}

func TestRK45_MatchesRosenbrockOnMildChain(t *testing.T) {
	sys := chain(t, 0.5, 0.2)
	tol := dynamo.Tolerance{Rel: 1e-8, Abs: 1e-12}
	x0 := dynamo.State{1, 0, 0}

	explicit, _ := integrate(t, NewRK45(), sys, x0, 10, tol)
	implicit, _ := integrate(t, NewRosenbrock(), sys, x0, 10, tol)

	for i := range explicit {
		if math.Abs(explicit[i]-implicit[i]) > 1e-6 {
			t.Errorf("component %d: rk45 %v, rosenbrock %v", i, explicit[i], implicit[i])
		}
	}
}

func TestRK45_Errors(t *testing.T) {
	tests := []struct {
		name string
		x    dynamo.State
		dt   float64
	}{
		{"zero dt", dynamo.State{1, 0}, 0},
		{"negative dt", dynamo.State{1, 0}, -0.1},
		{"short state", dynamo.State{1}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRK45().Step(&oscillator{}, tt.x, 0, tt.dt); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
