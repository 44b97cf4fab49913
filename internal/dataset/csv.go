package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DefaultNAValues mirrors the tokens pandas treats as missing when reading CSV.
var DefaultNAValues = []string{
	"", "NA", "N/A", "n/a", "NaN", "nan", "-NaN", "-nan", "NULL", "null",
	"None", "<NA>", "#N/A", "#NA", "#N/A N/A", "1.#IND", "-1.#IND",
	"1.#QNAN", "-1.#QNAN",
}

const utf8BOM = "\ufeff"

// CSVOptions controls how a CSV file becomes a Dataset.
type CSVOptions struct {
	Delimiter rune     // 0 auto-detects
	NAValues  []string // nil uses DefaultNAValues
	TrimSpace bool
}

func DefaultCSVOptions() CSVOptions {
	return CSVOptions{TrimSpace: true}
}

// LoadCSV reads a CSV file with a header row. The dataset is named after the
// file without its extension.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds, err := ReadCSV(file, name, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV data from r. Every row must have as many fields as the
// header.
func ReadCSV(r io.Reader, name string, opts CSVOptions) (*Dataset, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	delim := opts.Delimiter
	if delim == 0 {
		head, _ := br.Peek(64 * 1024)
		delim = DetectDelimiter(head, len(head))
	}
	if !IsValidDelimiter(delim) {
		return nil, fmt.Errorf("unsupported delimiter %q", delim)
	}

	na := opts.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	naSet := make(map[string]struct{}, len(na))
	for _, tok := range na {
		naSet[tok] = struct{}{}
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.TrimLeadingSpace = opts.TrimSpace

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	columns := make([][]Value, len(headers))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		for i, field := range record {
			if opts.TrimSpace {
				field = strings.TrimSpace(field)
			}
			if _, missing := naSet[field]; missing {
				columns[i] = append(columns[i], nil)
				continue
			}
			columns[i] = append(columns[i], field)
		}
	}

	ds := New(name)
	for i, header := range headers {
		if columns[i] == nil {
			columns[i] = []Value{}
		}
		if err := ds.AddColumn(header, columns[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// IsValidDelimiter checks if a rune is a supported CSV delimiter
func IsValidDelimiter(delim rune) bool {
	return delim == ',' || delim == ';' || delim == '\t' || delim == '|'
}

// DetectDelimiter picks the most frequent candidate delimiter in the first
// few lines of data, preferring ',' on ties.
func DetectDelimiter(data []byte, sampleSize int) rune {
	if sampleSize <= 0 || sampleSize > len(data) {
		sampleSize = len(data)
	}
	sample := data[:sampleSize]

	candidates := []rune{',', ';', '\t', '|'}
	counts := make(map[rune]int, len(candidates))

	lines := 0
	inQuotes := false
	for i := 0; i < len(sample) && lines < 5; i++ {
		c := sample[i]
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if c == '\n' {
			lines++
			continue
		}
		for _, delim := range candidates {
			if c == byte(delim) {
				counts[delim]++
			}
		}
	}

	best := ','
	maxCount := 0
	for _, delim := range candidates {
		if counts[delim] > maxCount {
			maxCount = counts[delim]
			best = delim
		}
	}
	return best
}
