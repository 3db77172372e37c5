package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSampler(t *testing.T) {
	sampler, err := NewSampler("runtime")
	require.NoError(t, err)
	assert.Equal(t, "runtime", sampler.Name())

	_, err = NewSampler("heap")
	assert.Error(t, err)
}

func TestRuntimeSampler(t *testing.T) {
	Compact()
	sampler := NewRuntimeSampler()
	snapshot, err := sampler.Sample()
	require.NoError(t, err)
	assert.NotZero(t, snapshot.InUse)
	assert.GreaterOrEqual(t, snapshot.Peak, snapshot.InUse)
}

func TestProcessSampler(t *testing.T) {
	sampler, err := NewProcessSampler()
	if err != nil {
		t.Skipf("process memory is not available: %v", err)
	}
	first, err := sampler.Sample()
	if err != nil {
		t.Skipf("process memory is not available: %v", err)
	}
	assert.NotZero(t, first.InUse)
	assert.GreaterOrEqual(t, first.Peak, first.InUse)

	hold := make([]byte, 16<<20)
	for i := range hold {
		hold[i] = byte(i)
	}
	second, err := sampler.Sample()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.Peak, first.Peak)
	assert.Len(t, hold, 16<<20)
}
