package cx

import (
	"fmt"
	"strings"
)

// View describes the target of an insert: a table and the ordered list of its columns
type View struct {
	Name    string
	Columns []string
}

func NewView(name string, columns []string) View {
	return View{Name: name, Columns: columns}
}

// InsertQuery creates a template for preparing the insert query
func (v View) InsertQuery() string {
	return fmt.Sprintf("INSERT INTO %s (%s)", v.Name, strings.Join(v.Columns, ", "))
}

// Vectorable interface is an assistant in the correct formation of the order of fields in the data
// before sending it to Clickhouse
type Vectorable interface {
	Row() Vector
}

// Vector is a fixed-arity tuple of values positionally matching View.Columns
type Vector []interface{}

// Row is a single materialized result row, values are ordered like RowSet.Columns
type Row []interface{}

// RowSet is a fully buffered query result
type RowSet struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of materialized rows
func (s *RowSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Value returns the value of the named column in row i
func (s *RowSet) Value(i int, column string) (interface{}, bool) {
	if s == nil || i < 0 || i >= len(s.Rows) {
		return nil, false
	}
	for idx, name := range s.Columns {
		if name == column && idx < len(s.Rows[i]) {
			return s.Rows[i][idx], true
		}
	}
	return nil, false
}

// RowIterator streams rows lazily. It is finite and can not be restarted,
// Err reports a protocol error that interrupted the iteration.
type RowIterator interface {
	Next() bool
	Row() Row
	Columns() []string
	Err() error
	Close() error
}
