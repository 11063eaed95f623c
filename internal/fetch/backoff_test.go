package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	initial := 1 * time.Second
	max := 30 * time.Second

	t.Run("doubles per attempt", func(t *testing.T) {
		assert.Equal(t, 1*time.Second, backoffDelay(initial, max, 2, 1))
		assert.Equal(t, 2*time.Second, backoffDelay(initial, max, 2, 2))
		assert.Equal(t, 4*time.Second, backoffDelay(initial, max, 2, 3))
		assert.Equal(t, 8*time.Second, backoffDelay(initial, max, 2, 4))
	})

	t.Run("capped at max", func(t *testing.T) {
		assert.Equal(t, max, backoffDelay(initial, max, 2, 6))
		assert.Equal(t, max, backoffDelay(initial, max, 2, 20))
	})

	t.Run("non-sensical multiplier falls back to doubling", func(t *testing.T) {
		assert.Equal(t, 2*time.Second, backoffDelay(initial, max, 0, 2))
		assert.Equal(t, 4*time.Second, backoffDelay(initial, max, 1, 3))
	})
}
