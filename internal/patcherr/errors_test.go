package patcherr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(KindMissingRoot, fs.ErrNotExist)
	wrapped := fmt.Errorf("platform android: %w", base)

	assert.True(t, Is(wrapped, KindMissingRoot))
	assert.False(t, Is(wrapped, KindConfig))
	assert.True(t, errors.Is(wrapped, fs.ErrNotExist))
	assert.Equal(t, "platform android: missing_root: file does not exist", wrapped.Error())
}

func TestNilErrUsesKind(t *testing.T) {
	err := New(KindConfig, nil)
	assert.Equal(t, "config: config", err.Error())
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindConfig))
}
