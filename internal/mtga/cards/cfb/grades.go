package cfb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Grades maps a cleaned card name to its pro rating.
type Grades map[string]float64

func (g Grades) keepMax(name string, rating float64) {
	if existing, ok := g[name]; !ok || rating > existing {
		g[name] = rating
	}
}

// Lookup returns the rating for a card name, cleaning it first.
func (g Grades) Lookup(name string) (float64, bool) {
	rating, ok := g[CleanName(name)]
	return rating, ok
}

// Merge copies every rating from other into g. Incoming values replace
// existing ones so a fresh export supersedes an older one.
func (g Grades) Merge(other Grades) {
	for name, rating := range other {
		g[name] = rating
	}
}

// LoadGrades reads a ratings file. A missing file is an empty set of grades.
func LoadGrades(path string) (Grades, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Grades{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grades: %w", err)
	}

	grades := Grades{}
	if err := json.Unmarshal(data, &grades); err != nil {
		return nil, fmt.Errorf("failed to parse grades %s: %w", path, err)
	}
	return grades, nil
}

// Save writes the grades as indented JSON, creating the parent directory.
func (g Grades) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create grades directory: %w", err)
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode grades: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write grades: %w", err)
	}
	return nil
}
