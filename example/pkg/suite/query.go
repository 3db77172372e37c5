package suite

import (
	"context"
	"fmt"
)

func (s *Suite) query(ctx context.Context) {
	s.printer.Header("2. Query Benchmarks")

	select1 := s.harness.Run(ctx, "SELECT 1", fresh(50), query("SELECT 1"))
	s.select1 = &select1
	s.printer.Result(select1)

	for _, rows := range []int{100, 1000, 5000} {
		name := fmt.Sprintf("SELECT %d rows", rows)
		s.printer.ResultRows(s.harness.Run(ctx, name, fresh(10), query(numbersQuery(rows))), rows)
	}
}

type typedQuery struct {
	name  string
	query string
}

// nolint:gochecknoglobals // it's OK
var typedQueries = []typedQuery{
	{"Int columns", `SELECT
		toInt8(number % 100) as i8,
		toInt16(number % 10000) as i16,
		toInt32(number) as i32,
		toInt64(number) as i64,
		toUInt64(number * 2) as u64
	FROM system.numbers LIMIT %d`},
	{"String columns", `SELECT
		toString(number) as str
	FROM system.numbers LIMIT %d`},
	{"Date/DateTime columns", `SELECT
		toDate('2024-01-01') + number as d,
		toDateTime('2024-01-01 00:00:00') + number as dt
	FROM system.numbers LIMIT %d`},
	{"Float columns", `SELECT
		toFloat32(number / 100.0) as f32,
		toFloat64(number / 1000.0) as f64
	FROM system.numbers LIMIT %d`},
	{"Nullable columns", `SELECT
		if(number % 2 = 0, number, NULL) as nullable_int,
		if(number % 3 = 0, toString(number), NULL) as nullable_str
	FROM system.numbers LIMIT %d`},
	{"UUID columns", `SELECT
		generateUUIDv4() as uuid
	FROM system.numbers LIMIT %d`},
}

func (s *Suite) types(ctx context.Context) {
	s.printer.Header("2.1 Query with Different Column Types")

	const rows = 1000
	for _, typed := range typedQueries {
		name := fmt.Sprintf("%s (%d rows)", typed.name, rows)
		s.printer.ResultRows(s.harness.Run(ctx, name, fresh(10), query(fmt.Sprintf(typed.query, rows))), rows)
	}
}
