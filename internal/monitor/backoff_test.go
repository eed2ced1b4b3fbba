package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Run("Starts At The Floor", func(t *testing.T) {
		b := NewBackoff(5*time.Second, 120*time.Second, 5*time.Second)
		assert.Equal(t, 5*time.Second, b.Next())
	})

	t.Run("Harden Doubles Up To The Ceiling", func(t *testing.T) {
		b := NewBackoff(5*time.Second, 120*time.Second, 5*time.Second)
		b.Harden()
		assert.Equal(t, 10*time.Second, b.Next())
		b.Harden()
		assert.Equal(t, 20*time.Second, b.Next())

		for i := 0; i < 10; i++ {
			b.Harden()
		}
		assert.Equal(t, 120*time.Second, b.Next(), "never exceeds the ceiling")
	})

	t.Run("Relax Steps Down To The Floor", func(t *testing.T) {
		b := NewBackoff(5*time.Second, 120*time.Second, 5*time.Second)
		b.Harden()
		b.Harden() // 20s
		b.Relax()
		assert.Equal(t, 15*time.Second, b.Next())

		for i := 0; i < 10; i++ {
			b.Relax()
		}
		assert.Equal(t, 5*time.Second, b.Next(), "never drops below the floor")
	})

	t.Run("Degenerate Bounds Are Repaired", func(t *testing.T) {
		b := NewBackoff(0, 0, 0)
		assert.Equal(t, 5*time.Second, b.Next())
		b.Harden()
		assert.Equal(t, 5*time.Second, b.Next())
	})
}
