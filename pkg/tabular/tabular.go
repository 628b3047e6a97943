// Package tabular is a whole-table store. Callers read a table, change
// its rows in memory and write it back; a write only lands when the
// table version has not moved since the read.
package tabular

import (
	"context"
	"errors"
)

var ErrVersionConflict = errors.New("tabular: table changed since it was read")

// Row maps column header to cell value.
type Row map[string]string

type Table struct {
	Name    string
	Version int64
	Rows    []Row
}

type Store interface {
	// Read returns a detached copy of the table.
	Read(ctx context.Context, name string) (*Table, error)
	// Write replaces all rows of t.Name if the stored version still equals
	// t.Version. On success t.Version is advanced to the new version.
	Write(ctx context.Context, t *Table) error
}

// Clone returns a deep copy so callers can mutate rows freely.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Version: t.Version, Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
