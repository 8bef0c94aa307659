// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T, path string) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndHistory(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t, filepath.Join(t.TempDir(), "nested", "reviewlens.db"))
	require.NotEmpty(t, l.RunID())

	require.NoError(t, l.Record(ctx, Entry{
		Stage:       "preprocessed",
		ReviewType:  "Critic",
		BatchIndex:  0,
		InputPath:   "in_0.json",
		OutputPath:  "out_0.json",
		ReviewCount: 12,
		Duration:    1500 * time.Millisecond,
	}))
	require.NoError(t, l.Record(ctx, Entry{
		Stage:      "sentiment",
		ReviewType: "Critic",
		BatchIndex: 0,
		InputPath:  "out_0.json",
		OutputPath: "sent_0.json",
		Status:     StatusFailed,
		Error:      "model server unavailable",
	}))

	all, err := l.History(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "sentiment", all[0].Stage)
	assert.Equal(t, StatusFailed, all[0].Status)
	assert.Equal(t, "model server unavailable", all[0].Error)

	pre := all[1]
	assert.Equal(t, l.RunID(), pre.RunID)
	assert.Equal(t, StatusDone, pre.Status)
	assert.Equal(t, 12, pre.ReviewCount)
	assert.Equal(t, 1500*time.Millisecond, pre.Duration)
	assert.Empty(t, pre.Error)
	assert.False(t, pre.FinishedAt.IsZero())

	filtered, err := l.History(ctx, Filter{Stage: "preprocessed"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "out_0.json", filtered[0].OutputPath)

	limited, err := l.History(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReopenKeepsHistoryWithNewRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, Entry{Stage: "preprocessed", ReviewType: "Audience", OutputPath: "a"}))
	require.NoError(t, first.Close())

	second := openTestLedger(t, path)
	assert.NotEqual(t, first.RunID(), second.RunID())

	entries, err := second.History(ctx, Filter{RunID: first.RunID()})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Audience", entries[0].ReviewType)

	none, err := second.History(ctx, Filter{RunID: second.RunID()})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = l.db.ExecContext(ctx, "UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = Open(ctx, path)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestNilLedgerRecordIsNoop(t *testing.T) {
	var l *Ledger
	assert.NoError(t, l.Record(context.Background(), Entry{Stage: "x"}))
	assert.NoError(t, l.Close())
}
