package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"golang-physiobackend/database"
)

func TestStoreErrorMapsSentinels(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(storeError(database.ErrNotFound, "x", "ctx")))
	assert.Equal(t, KindConflict, KindOf(storeError(database.ErrDuplicate, "x", "ctx")))

	boom := errors.New("connection reset")
	err := storeError(boom, "x", "load")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "internal server error", err.(*Error).Message)
}

func TestPassthrough(t *testing.T) {
	assert.NoError(t, passthrough(nil, "ctx"))

	se := notFound("nada")
	assert.Same(t, se, passthrough(se, "ctx"))

	wrapped := passthrough(errors.New("raw"), "ctx")
	assert.Equal(t, KindInternal, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
