package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Reader turns raw file bytes into a table.
type Reader func(ctx context.Context, raw []byte, opts ReadOptions) (*ReadResult, error)

// Writer serializes a table into file bytes.
type Writer func(t *Table) ([]byte, error)

// FormatDefinition is a pluggable conversion strategy for one file format.
// Formats are registered at init time by the formats package.
type FormatDefinition struct {
	Format      Format
	Label       string
	Extensions  []string // lower case, with leading dot; first is canonical
	Aliases     []string // short names accepted by ParseFormat
	ContentType string

	Read  Reader
	Write Writer
}

// Extension returns the canonical file extension.
func (d FormatDefinition) Extension() string {
	if len(d.Extensions) == 0 {
		return ""
	}
	return d.Extensions[0]
}

var (
	registry   = make(map[Format]FormatDefinition)
	registryMu sync.RWMutex
)

// RegisterFormat adds a format definition to the registry.
// Panics if the format is already registered.
func RegisterFormat(def FormatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Format]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Format))
	}
	registry[def.Format] = def
}

// LookupFormat returns the definition for f.
func LookupFormat(f Format) (FormatDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[f]
	return def, ok
}

// Formats returns all registered definitions sorted by format tag.
func Formats() []FormatDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormatDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Format < result[j].Format
	})
	return result
}

// ParseFormat resolves a format tag, alias ("csv", "xlsx") or extension
// (".csv") to a registered format.
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", fmt.Errorf("%w: empty format name", ErrUnsupportedFormat)
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	if _, ok := registry[Format(key)]; ok {
		return Format(key), nil
	}
	for _, def := range registry {
		for _, a := range def.Aliases {
			if a == key {
				return def.Format, nil
			}
		}
		for _, ext := range def.Extensions {
			if ext == key || ext == "."+key {
				return def.Format, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatForFile picks the registered format matching the extension of name.
func FormatForFile(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

// ClearFormats removes all registered formats.
// Primarily useful for testing.
func ClearFormats() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Format]FormatDefinition)
}
