package domain

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := Wrap(KindIO, "decode image", os.ErrNotExist)
	wrapped := fmt.Errorf("processing road_1.jpg: %w", base)

	assert.Equal(t, KindIO, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindIO))
	assert.False(t, IsKind(wrapped, KindShape))
	assert.True(t, errors.Is(wrapped, os.ErrNotExist))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindIO}))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindUnknown))
}

func TestWrap_NilStaysNil(t *testing.T) {
	assert.NoError(t, Wrap(KindCrypto, "seal", nil))
}

func TestError_Message(t *testing.T) {
	err := Errorf(KindShape, "extract", "image has zero area (%dx%d)", 0, 10)
	assert.Equal(t, "ShapeError: extract: image has zero area (0x10)", err.Error())
	assert.Equal(t, "RemoteCallError", KindRemoteCall.String())
	assert.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
}

func TestColorVector_Valid(t *testing.T) {
	tests := []struct {
		name string
		v    ColorVector
		want bool
	}{
		{"uniform", ColorVector{1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7, 1.0 / 7}, true},
		{"one hot", ColorVector{0, 0, 0, 1, 0, 0, 0}, true},
		{"wrong length", ColorVector{0.5, 0.5}, false},
		{"negative", ColorVector{-0.1, 0.1, 0.2, 0.2, 0.2, 0.2, 0.2}, false},
		{"not normalized", ColorVector{1, 1, 1, 1, 1, 1, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Valid(1e-6))
		})
	}
}
