package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
)

func newTestManager(t *testing.T) *Manager {
	store, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewManager(store)
}

func TestWriteThenReadSeesCommittedData(t *testing.T) {
	mgr := newTestManager(t)

	wh, err := mgr.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wh.Write().Set([]byte{0x01, 1}, []byte("v")))
	require.NoError(t, wh.Commit())

	rh, err := mgr.BeginRead()
	require.NoError(t, err)
	defer rh.Close()
	got, err := rh.Read().Get([]byte{0x01, 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestAbortDiscardsWrites(t *testing.T) {
	mgr := newTestManager(t)

	wh, err := mgr.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wh.Write().Set([]byte{0x01, 2}, []byte("v")))
	wh.Abort()

	rh, err := mgr.BeginRead()
	require.NoError(t, err)
	defer rh.Close()
	_, err = rh.Read().Get([]byte{0x01, 2})
	assert.Error(t, err)
}

func TestNestedBeginWriteReturnsAccessError(t *testing.T) {
	mgr := newTestManager(t)

	wh1, err := mgr.BeginWrite()
	require.NoError(t, err)
	defer wh1.Close()

	_, err = mgr.BeginWrite()
	require.Error(t, err)
	assert.True(t, helixerr.Is(err, helixerr.AccessError))
}

func TestBeginWriteSucceedsAfterPriorCommit(t *testing.T) {
	mgr := newTestManager(t)

	wh1, err := mgr.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wh1.Commit())

	wh2, err := mgr.BeginWrite()
	require.NoError(t, err)
	wh2.Abort()
}

func TestBeginWriteSucceedsAfterPriorAbort(t *testing.T) {
	mgr := newTestManager(t)

	wh1, err := mgr.BeginWrite()
	require.NoError(t, err)
	wh1.Abort()

	wh2, err := mgr.BeginWrite()
	require.NoError(t, err)
	wh2.Abort()
}

func TestCloseIsSafeAfterCommit(t *testing.T) {
	mgr := newTestManager(t)
	wh, err := mgr.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wh.Commit())
	assert.NotPanics(t, func() { wh.Close() })
}
