package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsParseable(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	assert.NotEqual(t, a, b)

	_, err := ulid.Parse(a)
	require.NoError(t, err)
}

func TestGeneratorIsReproducible(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2022, 11, 29, 10, 0, 56, 0, time.UTC)
	times := []time.Time{t0, t0, t0.Add(time.Second), t0.Add(time.Minute)}

	g1 := NewGenerator(42)
	g2 := NewGenerator(42)
	for _, ts := range times {
		assert.Equal(t, g1.New(ts), g2.New(ts))
	}
}

func TestGeneratorOrdersByTime(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2022, 11, 29, 10, 0, 56, 0, time.UTC)
	g := NewGenerator(7)

	first := g.New(t0)
	second := g.New(t0)
	later := g.New(t0.Add(time.Second))

	assert.Less(t, first, second)
	assert.Less(t, second, later)

	parsed, err := ulid.Parse(later)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(t0.Add(time.Second)), parsed.Time())
}
