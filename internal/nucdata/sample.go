package nucdata

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/fission"
)

//go:embed data/*.yaml
var sampleFS embed.FS

// Bundle pairs decay records with the fission yields that go with them.
type Bundle struct {
	Records []decay.Record
	Yields  *fission.Table
}

// Library indexes the bundle's records.
func (b *Bundle) Library(opts ...decay.Option) (*decay.Library, error) {
	return decay.NewLibrary(b.Records, opts...)
}

var (
	sampleOnce   sync.Once
	sampleBundle *Bundle
	sampleErr    error
)

// Sample returns the embedded reference data: light activation products,
// a few fission products, and the Cf-249 and Cf-252 decay chains.
// Callers share the result and must not modify it.
func Sample() (*Bundle, error) {
	sampleOnce.Do(func() {
		sampleBundle, sampleErr = loadSample()
	})
	return sampleBundle, sampleErr
}

func loadSample() (*Bundle, error) {
	raw, err := sampleFS.ReadFile("data/sample_decay.yaml")
	if err != nil {
		return nil, err
	}
	records, err := LoadDecay(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("sample decay data: %w", err)
	}
	raw, err = sampleFS.ReadFile("data/sample_yields.yaml")
	if err != nil {
		return nil, err
	}
	yields, err := LoadYields(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("sample yield data: %w", err)
	}
	return &Bundle{Records: records, Yields: yields}, nil
}

// Load reads a bundle from disk. An empty yieldPath yields an empty table.
func Load(decayPath, yieldPath string) (*Bundle, error) {
	records, err := ReadDecayFile(decayPath)
	if err != nil {
		return nil, err
	}
	yields := fission.NewTable()
	if yieldPath != "" {
		if yields, err = ReadYieldFile(yieldPath); err != nil {
			return nil, err
		}
	}
	return &Bundle{Records: records, Yields: yields}, nil
}
