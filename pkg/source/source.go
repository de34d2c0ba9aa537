// Package source loads raw inquiry and email text from the supported
// inputs: inline text, single files, directories of text files, and
// JSON-lines batches.
package source

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Item is one piece of input text with a label saying where it came from.
type Item struct {
	Source string
	Text   string
}

// SourceInline labels items passed directly on the command line.
const SourceInline = "inline"

var textExtensions = []string{".txt", ".eml"}

// FromText wraps inline text as a single item.
func FromText(text string) ([]Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	return []Item{{Source: SourceInline, Text: text}}, nil
}

// FromFile reads a single text file as one item.
func FromFile(path string) ([]Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	return []Item{{Source: filepath.Base(path), Text: string(b)}}, nil
}

// FromDir reads every .txt and .eml file directly in dir, sorted by name.
// Empty files are skipped, not fatal.
func FromDir(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range textExtensions {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)

	items := make([]Item, 0, len(names))
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", name, err)
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		items = append(items, Item{Source: name, Text: string(b)})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no non-empty %s files in %s", strings.Join(textExtensions, "/"), dir)
	}
	return items, nil
}

type jsonlRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// FromJSONL reads a JSON-lines file where each line is
// {"id": "optional", "text": "required"}. Blank lines are skipped; a line
// that is not valid JSON or has no text is an error naming the line number.
func FromJSONL(path string) ([]Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer file.Close()

	items := make([]Item, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("line %d of %s is not valid JSON: %w", line, path, err)
		}
		if strings.TrimSpace(rec.Text) == "" {
			return nil, fmt.Errorf("line %d of %s has no text", line, path)
		}

		src := rec.ID
		if src == "" {
			src = fmt.Sprintf("line %d", line)
		}
		items = append(items, Item{Source: src, Text: rec.Text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no records in %s", path)
	}
	return items, nil
}
