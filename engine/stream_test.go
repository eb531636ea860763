package engine_test

import (
	"context"
	"testing"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/engine"
	"github.com/fwojciec/redline/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStreaming(t *testing.T) {
	t.Parallel()

	const content = "l1\nl2\nl3\n"

	open := func(t *testing.T) (*engine.Engine, *memory.Buffer, string) {
		t.Helper()
		e, b := newTestEngine(t)
		b.Open(uri, content)
		txn, err := e.CreateTransaction(context.Background(), uri, content, redline.SourceAgent, true)
		require.NoError(t, err)
		require.NotEmpty(t, txn.AreaID)
		return e, b, txn.ID
	}

	t.Run("partial text is written and tracked as streaming diffs", func(t *testing.T) {
		t.Parallel()
		eng, buf, txnID := open(t)

		delta, err := eng.UpdateStreaming(context.Background(), txnID, "L1\nl2\nl3\n")
		require.NoError(t, err)
		require.Len(t, delta.New, 1)
		assert.Empty(t, delta.Updated)
		assert.Empty(t, delta.Removed)
		assert.Equal(t, redline.Streaming, delta.New[0].State)
		assert.Equal(t, redline.Range(1, 2), delta.New[0].Original)

		text, err := buf.Read(uri)
		require.NoError(t, err)
		assert.Equal(t, "L1\nl2\nl3\n", text)
	})

	t.Run("a hunk keeps its identity across updates", func(t *testing.T) {
		t.Parallel()
		eng, _, txnID := open(t)

		first, err := eng.UpdateStreaming(context.Background(), txnID, "L1\nl2\nl3\n")
		require.NoError(t, err)
		require.Len(t, first.New, 1)
		id := first.New[0].ID

		second, err := eng.UpdateStreaming(context.Background(), txnID, "L1\nl2\nL3\n")
		require.NoError(t, err)
		require.Len(t, second.New, 1)
		assert.NotEqual(t, id, second.New[0].ID)
		assert.Empty(t, second.Removed)

		d, err := eng.DiffByID(id)
		require.NoError(t, err)
		assert.Equal(t, "L1\n", d.ModifiedCode)
	})

	t.Run("growing text over a stable range reports the diff as updated", func(t *testing.T) {
		t.Parallel()
		eng, _, txnID := open(t)

		first, err := eng.UpdateStreaming(context.Background(), txnID, "L1a\nl2\nl3\n")
		require.NoError(t, err)
		require.Len(t, first.New, 1)
		id := first.New[0].ID

		second, err := eng.UpdateStreaming(context.Background(), txnID, "L1a\nL1b\nl2\nl3\n")
		require.NoError(t, err)
		require.Len(t, second.Updated, 1)
		assert.Empty(t, second.New)
		assert.Empty(t, second.Removed)
		assert.Equal(t, id, second.Updated[0].ID)
		assert.Equal(t, "L1a\nL1b\n", second.Updated[0].ModifiedCode)
		assert.Equal(t, redline.Range(1, 3), second.Updated[0].Modified)
	})

	t.Run("shrinking the stream removes superseded hunks", func(t *testing.T) {
		t.Parallel()
		eng, _, txnID := open(t)

		_, err := eng.UpdateStreaming(context.Background(), txnID, "L1\nl2\nL3\n")
		require.NoError(t, err)

		delta, err := eng.UpdateStreaming(context.Background(), txnID, "L1\nl2\nl3\n")
		require.NoError(t, err)
		require.Len(t, delta.Removed, 1)
		assert.Equal(t, 1, eng.DiffCount(uri))
	})

	t.Run("growth past the original extends the area", func(t *testing.T) {
		t.Parallel()
		eng, buf, txnID := open(t)

		_, err := eng.UpdateStreaming(context.Background(), txnID, "l1\nl2\nl3\nl4\nl5\n")
		require.NoError(t, err)

		text, err := buf.Read(uri)
		require.NoError(t, err)
		assert.Equal(t, "l1\nl2\nl3\nl4\nl5\n", text)

		areas := eng.DiffAreas(uri)
		require.Len(t, areas, 1)
		assert.Equal(t, 6, areas[0].EndLine)
	})

	t.Run("finalize flips streaming diffs to pending", func(t *testing.T) {
		t.Parallel()
		eng, _, txnID := open(t)

		delta, err := eng.UpdateStreaming(context.Background(), txnID, "L1\nl2\nl3\n")
		require.NoError(t, err)
		require.Len(t, delta.New, 1)

		require.NoError(t, eng.FinalizeTransaction(txnID))

		d, err := eng.DiffByID(delta.New[0].ID)
		require.NoError(t, err)
		assert.Equal(t, redline.Pending, d.State)

		_, err = eng.UpdateStreaming(context.Background(), txnID, "L1\n")
		assert.Equal(t, redline.ERESOLVED, redline.ErrorCode(err))
	})

	t.Run("finalize of an untouched stream deletes the empty area", func(t *testing.T) {
		t.Parallel()
		eng, _, txnID := open(t)

		require.NoError(t, eng.FinalizeTransaction(txnID))
		assert.Empty(t, eng.DiffAreas(uri))
		assert.Zero(t, eng.DiffCount(uri))
	})

	t.Run("unknown transaction fails with not_found", func(t *testing.T) {
		t.Parallel()
		eng, _ := newTestEngine(t)
		_, err := eng.UpdateStreaming(context.Background(), "t000077", "x\n")
		assert.Equal(t, redline.ENOTFOUND, redline.ErrorCode(err))
	})
}
