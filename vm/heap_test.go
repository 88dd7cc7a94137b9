package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapRefCounting(t *testing.T) {
	h := NewHeap()
	handle := h.AddText("hello", 0)

	require.NoError(t, h.IncrementRef(handle))
	count, ok := h.RefCount(handle)
	require.True(t, ok)
	assert.Equal(t, 1, count)

	require.NoError(t, h.DecrementRef(handle))
	_, ok = h.RefCount(handle)
	assert.False(t, ok, "item should be freed once its count reaches zero")
}

func TestHeapDecrementUnknownHandleIsSilentByDefault(t *testing.T) {
	h := NewHeap()
	assert.NoError(t, h.DecrementRef(Handle(9999)))
}

func TestHeapDecrementUnknownHandleFailsInStrictMode(t *testing.T) {
	h := NewHeap()
	h.StrictMode = true
	err := h.DecrementRef(Handle(9999))
	require.Error(t, err)
	cat, ok := CategoryOf(err)
	require.True(t, ok)
	assert.Equal(t, CategoryResource, cat)
}

func TestHeapSetListMutatesThroughHandle(t *testing.T) {
	h := NewHeap()
	handle := h.AddList([]Value{Integer(1), Integer(2)}, 0)

	items, err := h.List(handle)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, h.SetList(handle, append(items, Integer(3))))

	items, err = h.List(handle)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestHandleStability(t *testing.T) {
	h := NewHeap()
	handle := h.AddText("stable", 1)

	for i := 0; i < 5; i++ {
		s, err := h.Text(handle)
		require.NoError(t, err)
		assert.Equal(t, "stable", s)
	}
}
