// Package units parses physical time spans written with a unit suffix.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrBadDuration indicates an unparseable or negative time span.
var ErrBadDuration = errors.New("units: invalid duration")

const (
	Second float64 = 1
	Minute         = 60 * Second
	Hour           = 60 * Minute
	Day            = 24 * Hour
	// Year is the Julian year.
	Year = 365.25 * Day
)

var suffixes = []struct {
	name  string
	scale float64
}{
	// longest suffix first so "ms" is not read as "m"
	{"min", Minute},
	{"ms", 1e-3},
	{"us", 1e-6},
	{"µs", 1e-6},
	{"ns", 1e-9},
	{"y", Year},
	{"d", Day},
	{"h", Hour},
	{"m", Minute},
	{"s", Second},
}

// Duration is a span of time in seconds. Unlike time.Duration it covers
// both microsecond and geological half-lives.
type Duration float64

func (d Duration) Seconds() float64 { return float64(d) }

// Parse reads "10y", "6.75d", "32.3ms", a bare number of seconds, or
// "stable"/"inf" for an infinite span.
func Parse(s string) (Duration, error) {
	str := strings.TrimSpace(s)
	switch strings.ToLower(str) {
	case "stable", "inf", "+inf", "infinity":
		return Duration(math.Inf(1)), nil
	case "":
		return 0, fmt.Errorf("%w: empty", ErrBadDuration)
	}

	num, scale := str, Second
	for _, suf := range suffixes {
		if strings.HasSuffix(str, suf.name) {
			num, scale = strings.TrimSpace(strings.TrimSuffix(str, suf.name)), suf.scale
			break
		}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative %q", ErrBadDuration, s)
	}
	return Duration(v * scale), nil
}

// String renders the largest unit that reproduces the value exactly, or
// plain seconds.
func (d Duration) String() string {
	v := float64(d)
	if math.IsInf(v, 1) {
		return "stable"
	}
	for _, u := range []struct {
		name  string
		scale float64
	}{{"y", Year}, {"d", Day}, {"h", Hour}, {"m", Minute}} {
		q := v / u.scale
		if q >= 1 && q*u.scale == v {
			if p, err := strconv.ParseFloat(strconv.FormatFloat(q, 'g', -1, 64), 64); err == nil && p*u.scale == v {
				return strconv.FormatFloat(q, 'g', -1, 64) + u.name
			}
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64) + "s"
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrBadDuration, node.Line)
	}
	v, err := Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Set and Type let Duration serve as a command-line flag value.
func (d *Duration) Set(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d *Duration) Type() string { return "duration" }
