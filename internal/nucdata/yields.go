package nucdata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/transmute/internal/fission"
	"github.com/san-kum/transmute/internal/isotope"
)

type yieldDoc struct {
	Yields []yieldSetDoc `yaml:"yields"`
}

type yieldSetDoc struct {
	Parent    string        `yaml:"parent"`
	Mode      string        `yaml:"mode"`
	Fragments []fragmentDoc `yaml:"fragments"`
}

type fragmentDoc struct {
	Fragment string  `yaml:"fragment"`
	Yield    float64 `yaml:"yield"`
	StdDev   float64 `yaml:"stddev,omitempty"`
}

// LoadYields decodes a fission-yield document. A later set for the same
// parent and mode replaces an earlier one.
func LoadYields(r io.Reader) (*fission.Table, error) {
	var doc yieldDoc
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty yield document", ErrBadData)
		}
		return nil, fmt.Errorf("failed to parse yield YAML: %w", err)
	}

	table := fission.NewTable()
	for i, set := range doc.Yields {
		if err := set.load(table); err != nil {
			return nil, fmt.Errorf("yield set %d (%q): %w", i, set.Parent, err)
		}
	}
	return table, nil
}

func (s yieldSetDoc) load(table *fission.Table) error {
	parent, err := isotope.Parse(s.Parent)
	if err != nil {
		return err
	}
	mode, err := fission.ParseMode(s.Mode)
	if err != nil {
		return err
	}
	yields := make([]fission.Yield, 0, len(s.Fragments))
	for _, f := range s.Fragments {
		frag, err := isotope.Parse(f.Fragment)
		if err != nil {
			return err
		}
		yields = append(yields, fission.Yield{Fragment: frag, Fraction: f.Yield, StdDev: f.StdDev})
	}
	return table.Set(parent, mode, yields)
}

// ReadYieldFile loads a fission-yield document from disk.
func ReadYieldFile(path string) (*fission.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read yield file: %w", err)
	}
	return LoadYields(bytes.NewReader(data))
}
