package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/san-kum/transmute/internal/depletion"
	"github.com/san-kum/transmute/internal/isotope"
)

// FileStore keeps each run in its own directory as metadata.json and a
// long-format composition.csv. A snapshot with no positive entries
// leaves no rows and is not returned by LoadComposition.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Save(ctx context.Context, out *depletion.Outcome) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	meta, snaps := newRecord(out)
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "composition.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := writeComposition(csvFile, snaps); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeComposition(w io.Writer, snaps []Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "isotope", "quantity"}); err != nil {
		return err
	}
	for _, snap := range snaps {
		t := strconv.FormatFloat(snap.Time, 'g', -1, 64)
		for _, id := range sortedIDs(snap.Composition) {
			row := []string{t, id.String(), strconv.FormatFloat(snap.Composition[id], 'g', -1, 64)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *FileStore) List(ctx context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	slices.SortFunc(runs, func(a, b RunMetadata) int { return strings.Compare(a.ID, b.ID) })
	return runs, nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FileStore) LoadComposition(ctx context.Context, id string) ([]Snapshot, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "composition.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 3
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Snapshot{}, nil
	}

	var snaps []Snapshot
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("composition.csv line %d: %w", i+2, err)
		}
		iso, err := isotope.Parse(record[1])
		if err != nil {
			return nil, fmt.Errorf("composition.csv line %d: %w", i+2, err)
		}
		q, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("composition.csv line %d: %w", i+2, err)
		}
		if n := len(snaps); n == 0 || snaps[n-1].Time != t {
			snaps = append(snaps, Snapshot{Time: t, Composition: map[isotope.ID]float64{}})
		}
		snaps[len(snaps)-1].Composition[iso] = q
	}
	return snaps, nil
}
