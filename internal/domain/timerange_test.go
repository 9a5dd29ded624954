package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	t.Run("partial overlap", func(t *testing.T) {
		assert.True(t, Overlaps(at(9, 30), at(10, 30), at(10, 0), at(11, 0)))
	})

	t.Run("containment", func(t *testing.T) {
		assert.True(t, Overlaps(at(9, 0), at(12, 0), at(10, 0), at(11, 0)))
	})

	t.Run("disjoint", func(t *testing.T) {
		assert.False(t, Overlaps(at(8, 0), at(9, 0), at(10, 0), at(11, 0)))
	})

	t.Run("boundary touch is not an overlap", func(t *testing.T) {
		assert.False(t, Overlaps(at(9, 0), at(10, 0), at(10, 0), at(11, 0)))
		assert.False(t, Overlaps(at(10, 0), at(11, 0), at(9, 0), at(10, 0)))
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][4]time.Time{
			{at(9, 30), at(10, 30), at(10, 0), at(11, 0)},
			{at(9, 0), at(10, 0), at(10, 0), at(11, 0)},
			{at(8, 0), at(9, 0), at(13, 0), at(14, 0)},
			{at(9, 0), at(12, 0), at(10, 0), at(11, 0)},
		}
		for _, p := range pairs {
			assert.Equal(t,
				Overlaps(p[0], p[1], p[2], p[3]),
				Overlaps(p[2], p[3], p[0], p[1]),
			)
		}
	})
}
