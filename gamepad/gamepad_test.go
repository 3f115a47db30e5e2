package gamepad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatch(t *testing.T) {
	var l Latch

	assert.False(t, l.Run(false))
	assert.True(t, l.Run(true))

	// Holding the button doesn't re-fire.
	assert.False(t, l.Run(true))
	assert.False(t, l.Run(false))
	assert.True(t, l.Run(true))
}
