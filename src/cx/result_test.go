package cx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	t.Run("it should compute statistics over successful trials", func(t *testing.T) {
		result := Reduce("q", []Trial{{Elapsed: 2}, {Elapsed: 4}, {Elapsed: 9}})
		assert.False(t, result.Error)
		assert.Equal(t, 3, result.Iterations)
		assert.Equal(t, float64(5), result.Avg)
		assert.Equal(t, float64(2), result.Min)
		assert.Equal(t, float64(9), result.Max)
		assert.Empty(t, result.ErrorMsg)
	})

	t.Run("it should skip failed trials instead of counting zeros", func(t *testing.T) {
		result := Reduce("q", []Trial{
			{Elapsed: 3},
			{Err: errors.New("first")},
			{Elapsed: 5},
			{Err: errors.New("second")},
		})
		assert.False(t, result.Error)
		assert.Equal(t, 2, result.Iterations)
		assert.Equal(t, float64(4), result.Avg)
		assert.Equal(t, float64(3), result.Min)
		assert.Equal(t, "second", result.ErrorMsg)
	})

	t.Run("it should flag a result without successes", func(t *testing.T) {
		result := Reduce("q", []Trial{{Err: errors.New("boom")}, {Err: errors.New("boom")}})
		assert.Equal(t, Result{Name: "q", Error: true, ErrorMsg: "boom"}, result)
		assert.Equal(t, Result{Name: "empty", Error: true}, Reduce("empty", nil))
	})
}
