package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, "state", 1, []byte(`{"seq":1}`)))
	require.NoError(t, j.Append(ctx, "state", 2, []byte(`{"seq":2}`)))
	require.NoError(t, j.Append(ctx, "action_result", 0, []byte(`{"success":true}`)))

	recent, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first.
	require.Equal(t, "action_result", recent[0].Kind)
	require.Equal(t, "state", recent[1].Kind)
	require.Equal(t, uint64(2), recent[1].Seq)
	require.JSONEq(t, `{"seq":2}`, string(recent[1].Payload))
	require.False(t, recent[1].ReceivedAt.IsZero())
}

func TestByKind(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, "state", 1, []byte(`{}`)))
	require.NoError(t, j.Append(ctx, "action_result", 0, []byte(`{}`)))
	require.NoError(t, j.Append(ctx, "state", 2, []byte(`{}`)))

	states, err := j.ByKind(ctx, "state")
	require.NoError(t, err)
	require.Len(t, states, 2)

	// Oldest first.
	require.Equal(t, uint64(1), states[0].Seq)
	require.Equal(t, uint64(2), states[1].Seq)

	none, err := j.ByKind(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, "state", 7, []byte(`{"seq":7}`)))
	require.NoError(t, j.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint64(7), entries[0].Seq)
}
