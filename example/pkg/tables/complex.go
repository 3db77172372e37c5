package tables

import (
	"fmt"
	"time"

	"github.com/zikwall/clickhouse-bench/src/cx"
)

type ComplexRow struct {
	ID       uint64
	Int8     int8
	Int64    int64
	Float    float64
	String   string
	Date     time.Time
	DateTime time.Time
	// nil is written as NULL
	Nullable *string
}

func (r *ComplexRow) Row() cx.Vector {
	return cx.Vector{r.ID, r.Int8, r.Int64, r.Float, r.String, r.Date, r.DateTime, r.Nullable}
}

func ComplexColumns() []string {
	return []string{
		"id", "int8_col", "int64_col", "float_col", "string_col", "date_col", "datetime_col", "nullable_col",
	}
}

const createComplexTableQuery = `
		CREATE TABLE %s (
			  id           UInt64
			, int8_col     Int8
			, int64_col    Int64
			, float_col    Float64
			, string_col   String
			, date_col     Date
			, datetime_col DateTime
			, nullable_col Nullable(String)
		) ENGINE = MergeTree() ORDER BY id
`

// ComplexRows generates n rows, every second one with a NULL in nullable_col
func ComplexRows(baseID uint64, n int) []cx.Vector {
	datetime := benchmarkDate.Add(12 * time.Hour)
	rows := make([]cx.Vector, 0, n)
	for i := 0; i < n; i++ {
		row := &ComplexRow{
			ID:       baseID + uint64(i),
			Int8:     int8(i % 127),
			Int64:    int64(i) * 1000000,
			Float:    float64(i) / 3.14159,
			String:   fmt.Sprintf("A fairly long string with some content %d", i),
			Date:     benchmarkDate,
			DateTime: datetime,
		}
		if i%2 == 0 {
			value := fmt.Sprintf("value_%d", i)
			row.Nullable = &value
		}
		rows = append(rows, row.Row())
	}
	return rows
}
