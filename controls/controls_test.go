package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerSetGet(t *testing.T) {
	h := NewHandler()

	sps := &H264SPS{LevelIdc: 31}
	h.Set(IDH264SPS, sps)

	value, err := h.Get(IDH264SPS)
	require.NoError(t, err)
	assert.Same(t, sps, value)
}

func TestHandlerMissingControl(t *testing.T) {
	h := NewHandler()

	_, err := h.Get(IDH264PPS)
	assert.ErrorIs(t, err, ErrMissingControl)
}

func TestHandlerTypedGetters(t *testing.T) {
	h := NewHandler()

	h.Set(IDEncGOPSize, int32(30))
	v, err := h.Int(IDEncGOPSize)
	require.NoError(t, err)
	assert.Equal(t, int32(30), v)

	h.Set(IDEncGOPClosure, true)
	assert.True(t, h.Bool(IDEncGOPClosure))
	assert.False(t, h.Bool(IDEncForceKeyFrame))

	assert.Equal(t, int32(12), h.IntDefault(IDEncIPeriod, 12))

	h.Set(IDEncIPeriod, "not an int")
	_, err = h.Int(IDEncIPeriod)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestHandlerChangeObserver(t *testing.T) {
	h := NewHandler()

	var seen []ID
	h.OnChange(func(id ID) {
		seen = append(seen, id)
	})

	h.Set(IDEncH264Profile, EncH264ProfileMain)
	h.Set(IDEncH264EntropyMode, EncH264EntropyCABAC)

	assert.Equal(t, []ID{IDEncH264Profile, IDEncH264EntropyMode}, seen)
}
