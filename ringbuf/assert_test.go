//go:build ringbufdebug

package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreconditionsPanicInDebugBuilds(t *testing.T) {
	assert.Panics(t, func() { New[int](4).Shift() })
	assert.Panics(t, func() { NewDouble[int](4).StartIncr(1) })
	assert.Panics(t, func() { NewDouble[int](4).EndIncr(5) })
	assert.Panics(t, func() { NewMultiTap[int](4, 2).Shift(1) })
}
