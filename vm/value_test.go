package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCompatible(t *testing.T) {
	assert.True(t, isCompatible(Integer(1), Number(2.5)))
	assert.True(t, isCompatible(Integer(1), Integer(2)))
	assert.False(t, isCompatible(Null(), Integer(1)))
	assert.False(t, isCompatible(Null(), Null()))
	assert.False(t, isCompatible(Text(1), List(2)))
}

func TestValueAccessorsPanicOnWrongKind(t *testing.T) {
	assert.Panics(t, func() { Null().Int() })
	assert.Panics(t, func() { Integer(1).Num() })
	assert.Panics(t, func() { Number(1).Handle() })
}

func TestIsHeapBacked(t *testing.T) {
	assert.True(t, Text(1).IsHeapBacked())
	assert.True(t, List(1).IsHeapBacked())
	assert.False(t, Integer(1).IsHeapBacked())
	assert.False(t, Null().IsHeapBacked())
}
