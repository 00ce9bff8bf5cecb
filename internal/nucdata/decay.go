// Package nucdata loads decay and fission-yield data from YAML documents
// and ships a small embedded sample library.
package nucdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/units"
)

// ErrBadData indicates a document that parses as YAML but describes
// invalid nuclear data.
var ErrBadData = errors.New("nucdata: invalid data")

type decayDoc struct {
	Nuclides []nuclideDoc `yaml:"nuclides"`
}

type nuclideDoc struct {
	ID          string         `yaml:"id"`
	HalfLife    units.Duration `yaml:"half_life"`
	HalfLifeErr units.Duration `yaml:"half_life_err,omitempty"`
	Channels    []channelDoc   `yaml:"channels,omitempty"`
}

type channelDoc struct {
	// Daughter is empty for a spontaneous-fission channel.
	Daughter     string  `yaml:"daughter,omitempty"`
	Mode         string  `yaml:"mode"`
	Branching    float64 `yaml:"branching"`
	BranchingErr float64 `yaml:"branching_err,omitempty"`
}

// LoadDecay decodes a decay document into records, in document order.
// Unknown keys are rejected.
func LoadDecay(r io.Reader) ([]decay.Record, error) {
	var doc decayDoc
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty decay document", ErrBadData)
		}
		return nil, fmt.Errorf("failed to parse decay YAML: %w", err)
	}

	records := make([]decay.Record, 0, len(doc.Nuclides))
	for i, n := range doc.Nuclides {
		rec, err := n.record()
		if err != nil {
			return nil, fmt.Errorf("nuclide %d (%q): %w", i, n.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (n nuclideDoc) record() (decay.Record, error) {
	id, err := isotope.Parse(n.ID)
	if err != nil {
		return decay.Record{}, err
	}
	channels := make([]decay.Channel, 0, len(n.Channels))
	for _, c := range n.Channels {
		mode, err := decay.ParseMode(c.Mode)
		if err != nil {
			return decay.Record{}, err
		}
		ch := decay.Channel{Type: mode, Branching: c.Branching, BranchingErr: c.BranchingErr}
		switch {
		case c.Daughter == "" && mode != decay.SpontaneousFission:
			return decay.Record{}, fmt.Errorf("%w: %s channel without daughter", ErrBadData, mode)
		case c.Daughter != "" && mode == decay.SpontaneousFission:
			return decay.Record{}, fmt.Errorf("%w: sf channel names daughter %q", ErrBadData, c.Daughter)
		case c.Daughter != "":
			if ch.Daughter, err = isotope.Parse(c.Daughter); err != nil {
				return decay.Record{}, err
			}
		default:
			ch.Daughter = decay.FissionSentinel
		}
		channels = append(channels, ch)
	}
	return decay.NewRecord(id, n.HalfLife.Seconds(), n.HalfLifeErr.Seconds(), channels)
}

// ReadDecayFile loads a decay document from disk.
func ReadDecayFile(path string) ([]decay.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decay file: %w", err)
	}
	return LoadDecay(bytes.NewReader(data))
}

// WriteDecay encodes records in the format LoadDecay reads.
func WriteDecay(w io.Writer, records []decay.Record) error {
	doc := decayDoc{Nuclides: make([]nuclideDoc, 0, len(records))}
	for _, r := range records {
		n := nuclideDoc{
			ID:          r.ID().String(),
			HalfLife:    units.Duration(r.HalfLife),
			HalfLifeErr: units.Duration(r.HalfLifeErr),
		}
		for _, ch := range r.Channels {
			c := channelDoc{Mode: ch.Type.String(), Branching: ch.Branching, BranchingErr: ch.BranchingErr}
			if !ch.IsFission() {
				c.Daughter = ch.Daughter.String()
			}
			n.Channels = append(n.Channels, c)
		}
		doc.Nuclides = append(doc.Nuclides, n)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode decay YAML: %w", err)
	}
	return enc.Close()
}
