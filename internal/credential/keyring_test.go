package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := openRing
	openRing = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openRing = prev })
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	require.NoError(t, Set(KeyAPIKey, "sk-123"))

	v, err := Get(KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-123", v)

	require.NoError(t, Delete(KeyAPIKey))
	_, err = Get(KeyAPIKey)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestLookup(t *testing.T) {
	useArrayKeyring(t)

	_, ok, err := Lookup(KeyMailPassword)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Set(KeyMailPassword, "hunter2"))
	v, ok, err := Lookup(KeyMailPassword)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hunter2", v)
}

func TestOpenFailure(t *testing.T) {
	prev := openRing
	openRing = func() (keyring.Keyring, error) { return nil, errors.New("no backend") }
	t.Cleanup(func() { openRing = prev })

	_, _, err := Lookup(KeyAPIKey)
	assert.EqualError(t, err, "no backend")
}
