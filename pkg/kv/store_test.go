package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/pkg/helixerr"
)

func TestUpdateAndViewRoundTrip(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	key := []byte{0x01, 1, 2, 3}
	val := []byte("hello")

	require.NoError(t, store.Update(func(w *WriteTxn) error {
		return w.Set(key, val)
	}))

	require.NoError(t, store.View(func(r *ReadTxn) error {
		got, err := r.Get(key)
		require.NoError(t, err)
		assert.Equal(t, val, got)
		return nil
	}))
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	err = store.View(func(r *ReadTxn) error {
		_, err := r.Get([]byte{0x01})
		return err
	})
	require.Error(t, err)
	assert.True(t, helixerr.Is(err, helixerr.NotFound))
}

func TestCursorScopedToPrefix(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Update(func(w *WriteTxn) error {
		require.NoError(t, w.Set([]byte{0x01, 1}, []byte("a")))
		require.NoError(t, w.Set([]byte{0x01, 2}, []byte("b")))
		require.NoError(t, w.Set([]byte{0x02, 1}, []byte("c")))
		return nil
	}))

	var seen []string
	require.NoError(t, store.View(func(r *ReadTxn) error {
		return r.Cursor([]byte{0x01}, func(key, value []byte) error {
			seen = append(seen, string(value))
			return nil
		})
	}))
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Update(func(w *WriteTxn) error {
		require.NoError(t, w.Delete([]byte{0x01, 9}))
		return w.Delete([]byte{0x01, 9})
	}))
}

func TestDeriveEncryptionKeyLength(t *testing.T) {
	key, err := DeriveEncryptionKey("correct horse battery staple", []byte("/tmp/db"))
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestDeriveEncryptionKeyEmptyPassphrase(t *testing.T) {
	_, err := DeriveEncryptionKey("", []byte("salt"))
	assert.Error(t, err)
}

func TestRunValueLogGCOnEmptyStoreIsNoop(t *testing.T) {
	store, err := OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.RunValueLogGC(0.5))
}
