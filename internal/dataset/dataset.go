package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrColumnLength    = errors.New("column length does not match row count")
)

// Dataset is an ordered set of named, equally long columns.
type Dataset struct {
	Name    string
	columns []string
	values  map[string][]Value
	rows    int
}

func New(name string) *Dataset {
	return &Dataset{
		Name:   name,
		values: make(map[string][]Value),
	}
}

// AddColumn appends a column. The first column fixes the row count.
func (d *Dataset) AddColumn(name string, values []Value) error {
	if _, ok := d.values[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if len(d.columns) > 0 && len(values) != d.rows {
		return fmt.Errorf("%w: %q has %d values, want %d", ErrColumnLength, name, len(values), d.rows)
	}
	if len(d.columns) == 0 {
		d.rows = len(values)
	}
	d.columns = append(d.columns, name)
	d.values[name] = values
	return nil
}

// Columns returns the column names in insertion order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

func (d *Dataset) Column(name string) ([]Value, bool) {
	v, ok := d.values[name]
	return v, ok
}

func (d *Dataset) Rows() int {
	return d.rows
}

func (d *Dataset) Shape() (rows, cols int) {
	return d.rows, len(d.columns)
}

// Hash is a content hash over column names and cell values in column order.
func (d *Dataset) Hash() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, name := range d.columns {
		_, _ = h.WriteString(name)
		_, _ = h.Write([]byte{0})
		for _, v := range d.values[name] {
			if IsMissing(v) {
				_, _ = h.Write([]byte{1})
				continue
			}
			switch k := Key(v).(type) {
			case float64:
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(k))
				_, _ = h.Write([]byte{2})
				_, _ = h.Write(buf[:])
			case int64:
				binary.LittleEndian.PutUint64(buf[:], uint64(k))
				_, _ = h.Write([]byte{3})
				_, _ = h.Write(buf[:])
			case bool:
				if k {
					_, _ = h.Write([]byte{4, 1})
				} else {
					_, _ = h.Write([]byte{4, 0})
				}
			default:
				_, _ = h.Write([]byte{5})
				_, _ = h.WriteString(fmt.Sprint(k))
				_, _ = h.Write([]byte{0})
			}
		}
		_, _ = h.Write([]byte{0xff})
	}
	return h.Sum64()
}
