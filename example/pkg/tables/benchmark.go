package tables

import (
	"fmt"
	"strings"
	"time"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

// nolint:gochecknoglobals // it's OK
var benchmarkDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type BenchmarkRow struct {
	ID      uint64
	Name    string
	Value   float64
	Created time.Time
}

func (r *BenchmarkRow) Row() cx.Vector {
	return cx.Vector{r.ID, r.Name, r.Value, r.Created}
}

func BenchmarkColumns() []string {
	return []string{"id", "name", "value", "created"}
}

const createBenchmarkTableQuery = `
		CREATE TABLE %s (
			id      UInt64,
			name    String,
			value   Float64,
			created Date
		) ENGINE = MergeTree() ORDER BY id
`

// BenchmarkRows generates n rows with ids starting at baseID
func BenchmarkRows(baseID uint64, n int) []cx.Vector {
	rows := make([]cx.Vector, 0, n)
	for i := 0; i < n; i++ {
		row := &BenchmarkRow{
			ID:      baseID + uint64(i),
			Name:    fmt.Sprintf("test_name_%d", i),
			Value:   float64(i) / 100.0,
			Created: benchmarkDate,
		}
		rows = append(rows, row.Row())
	}
	return rows
}

// PaddedRows is like BenchmarkRows with a hundred bytes of filler in every name,
// enough payload for compression to matter
func PaddedRows(baseID uint64, n int) []cx.Vector {
	filler := strings.Repeat("x", 100)
	rows := make([]cx.Vector, 0, n)
	for i := 0; i < n; i++ {
		row := &BenchmarkRow{
			ID:      baseID + uint64(i),
			Name:    fmt.Sprintf("%s_%d", filler, i),
			Value:   float64(i) / 100.0,
			Created: benchmarkDate,
		}
		rows = append(rows, row.Row())
	}
	return rows
}

// SingleRow is the payload of the one row insert benchmark
func SingleRow(id uint64) []cx.Vector {
	row := &BenchmarkRow{ID: id, Name: "test", Value: 3.14, Created: benchmarkDate}
	return []cx.Vector{row.Row()}
}
