package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// csvRecords reads a headed CSV stream into lower-cased key/value records.
type csvRecords struct {
	r      *csv.Reader
	header []string
}

func newCSVRecords(src io.Reader) (*csvRecords, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	raw, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	header := make([]string, len(raw))
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return &csvRecords{r: r, header: header}, nil
}

// Next returns the next record keyed by header name, or io.EOF. Short rows
// leave trailing columns absent and extra cells are ignored. A malformed
// line returns a *csv.ParseError and reading may continue.
func (c *csvRecords) Next() (map[string]string, error) {
	fields, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	record := make(map[string]string, len(c.header))
	for i, name := range c.header {
		if i >= len(fields) {
			break
		}
		if _, dup := record[name]; dup || name == "" {
			continue
		}
		record[name] = fields[i]
	}
	return record, nil
}

// CSVFile is a local pincode CSV opened for streaming.
type CSVFile struct {
	f       *os.File
	records *csvRecords
	Path    string
}

// ResolvePath joins path onto storageDir unless path is absolute.
func ResolvePath(storageDir, path string) string {
	if filepath.IsAbs(path) || storageDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(storageDir, path)
}

// CheckSourceFile reports ErrSourceNotFound when path is missing or is a
// directory.
func CheckSourceFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

// OpenCSVFile opens path and validates its header against aliases.
func OpenCSVFile(path string, aliases PincodeAliases) (*CSVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	records, err := newCSVRecords(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if !aliases.HasPincode(records.header) {
		f.Close()
		return nil, fmt.Errorf("%w: no pincode column in %v", ErrInvalidHeader, records.header)
	}

	return &CSVFile{f: f, records: records, Path: path}, nil
}

// Next returns the next record, or io.EOF.
func (c *CSVFile) Next() (map[string]string, error) {
	return c.records.Next()
}

// Close closes the underlying file.
func (c *CSVFile) Close() error {
	return c.f.Close()
}
