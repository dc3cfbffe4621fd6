package cfb

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
)

// ErrNoRatings is returned when an export contained nothing usable.
var ErrNoRatings = errors.New("no ratings found")

// Extractor turns an export into grades.
type Extractor func(r io.Reader) (Grades, error)

// ImportResult describes one import run.
type ImportResult struct {
	Source    string
	Extracted int
	Total     int
	Missing   bool // the export file did not exist
}

// Importer merges exported pro grades into the ratings file.
type Importer struct {
	gradesPath string
}

// NewImporter creates an importer writing to gradesPath.
func NewImporter(gradesPath string) *Importer {
	return &Importer{gradesPath: gradesPath}
}

// GradesPath returns the ratings file the importer writes.
func (i *Importer) GradesPath() string {
	return i.gradesPath
}

// ImportFromHTML imports a saved ratings page.
func (i *Importer) ImportFromHTML(path string) (*ImportResult, error) {
	return i.importFile(path, ExtractHTML)
}

// ImportFromJSON imports a `{"cards":[...]}` export.
func (i *Importer) ImportFromJSON(path string) (*ImportResult, error) {
	return i.importFile(path, ExtractJSON)
}

// importFile reports a missing export and returns without error, leaving the
// ratings file untouched.
func (i *Importer) importFile(path string, extract Extractor) (*ImportResult, error) {
	result := &ImportResult{Source: path}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[CFBImporter] Export %s not found, nothing to import", path)
		result.Missing = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer func() { _ = f.Close() }()

	grades, err := extract(f)
	if err != nil {
		return nil, err
	}

	return i.ImportRatings(result, grades)
}

// ImportRatings merges grades into the ratings file and saves it.
func (i *Importer) ImportRatings(result *ImportResult, grades Grades) (*ImportResult, error) {
	result.Extracted = len(grades)
	log.Printf("[CFBImporter] Extracted %d unique card ratings from %s", len(grades), result.Source)

	if len(grades) == 0 {
		return result, ErrNoRatings
	}

	existing, err := LoadGrades(i.gradesPath)
	if err != nil {
		log.Printf("[CFBImporter] Warning: ignoring unreadable %s: %v", i.gradesPath, err)
		existing = Grades{}
	}

	existing.Merge(grades)
	if err := existing.Save(i.gradesPath); err != nil {
		return nil, err
	}
	result.Total = len(existing)

	log.Printf("[CFBImporter] Updated %s (%d ratings)", i.gradesPath, result.Total)
	return result, nil
}
