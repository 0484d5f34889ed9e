package tle

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
)

// Decode parses catalog data in either TLE text or OMM JSON form. The form
// is chosen by the first non-space byte.
func Decode(data []byte, logger *slog.Logger) ([]ElementSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '[' && trimmed[0] != '{' {
		return Parse(bytes.NewReader(data), logger)
	}

	omms, err := ParseOMMs(trimmed)
	if err != nil {
		return nil, err
	}
	sets := make([]ElementSet, 0, len(omms))
	for i, o := range omms {
		es, err := o.ElementSet()
		if err != nil {
			logger.Warn("skipping OMM record", "index", i, "name", o.ObjectName, "error", err)
			continue
		}
		sets = append(sets, es)
	}
	return sets, nil
}

// LoadFile reads a catalog file from disk.
func LoadFile(path string, logger *slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	sets, err := Decode(data, logger)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}
	logger.Info("catalog loaded", "component", "tle", "path", path, "count", len(sets))
	return NewCatalog(path, sets), nil
}
