package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/ir"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// FormatForPath picks the format from the file extension. Unknown
// extensions export as CSV.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatCSV
}

// Entry is one exported item.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
}

// Document is the structured export: every item plus summary counts.
type Document struct {
	States          []Entry  `json:"states" yaml:"states"`
	CountNames      int      `json:"count_names" yaml:"count_names"`
	CountStates     int      `json:"count_states" yaml:"count_states"`
	StatesInProject []string `json:"states_in_project" yaml:"states_in_project"`
}

// NewDocument builds the document for items, keeping their order.
// StatesInProject lists each distinct state once, sorted.
func NewDocument(items []ir.Item) Document {
	doc := Document{
		States:          make([]Entry, len(items)),
		CountNames:      len(items),
		StatesInProject: []string{},
	}

	seen := make(map[string]bool)
	for i, it := range items {
		doc.States[i] = Entry{Name: it.Name, State: it.State}
		if !seen[it.State] {
			seen[it.State] = true
			doc.StatesInProject = append(doc.StatesInProject, it.State)
		}
	}
	sort.Strings(doc.StatesInProject)
	doc.CountStates = len(doc.StatesInProject)
	return doc
}

// Write encodes items to w in format f.
func Write(w io.Writer, f Format, items []ir.Item) error {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(NewDocument(items), "", " ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(items)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		cw.UseCRLF = true
		if err := cw.Write([]string{"name", "state"}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		for _, it := range items {
			if err := cw.Write([]string{it.Name, it.State}); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteFile exports items to path in the format its extension selects.
// The file is replaced atomically.
func WriteFile(path string, items []ir.Item) (Format, error) {
	f := FormatForPath(path)

	var buf bytes.Buffer
	if err := Write(&buf, f, items); err != nil {
		return "", err
	}
	if err := actionlog.WriteAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	return f, nil
}
