// Package dataset loads the historical project CSV used to bootstrap the
// corpus before any live submissions arrive.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is one historical project row.
type Entry struct {
	ID          int
	Title       string
	Year        int
	Decision    string
	Description string
}

// requiredColumns must all appear in the CSV header.
var requiredColumns = []string{"id", "title", "year", "decision", "description"}

// Load reads a CSV with a header row naming at least the required columns,
// in any order. Extra columns are ignored.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses dataset rows from r.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset missing required column %q", name)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset row: %w", err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(row[cols["id"]]))
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: invalid id %q", line, row[cols["id"]])
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[cols["year"]]))
		if err != nil {
			return nil, fmt.Errorf("dataset line %d: invalid year %q", line, row[cols["year"]])
		}

		entries = append(entries, Entry{
			ID:          id,
			Title:       strings.TrimSpace(row[cols["title"]]),
			Year:        year,
			Decision:    strings.TrimSpace(row[cols["decision"]]),
			Description: strings.TrimSpace(row[cols["description"]]),
		})
	}

	return entries, nil
}
