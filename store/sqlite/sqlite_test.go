package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_ReadMissingSheet(t *testing.T) {
	st := newStore(t)
	_, err := st.ReadTable(context.Background(), "Master")
	assert.ErrorIs(t, err, registry.ErrSheetNotFound)
}

func TestStore_WriteColumnPreservesRow(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.WriteRange(ctx, registry.At("Master", 0, 0), [][]any{
		{"Name", "Email"},
		{"Ana", "ana@example.com"},
		{"Bo", 45292.0},
	}))
	require.NoError(t, st.WriteRange(ctx, registry.At("Master", 0, 2), [][]any{
		{"Next Reminder"},
		{registry.NewDate(2024, 4, 30)},
	}))

	tbl, err := st.ReadTable(ctx, "Master")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Next Reminder"}, tbl.Header)
	assert.Equal(t, []any{"Ana", "ana@example.com", "2024-04-30"}, tbl.Rows[0])
	assert.Equal(t, []any{"Bo", 45292.0}, tbl.Rows[1])
}

func TestStore_ReplaceDropsOldRows(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.WriteRange(ctx, registry.WholeSheet("View"), [][]any{{"A"}, {"1"}, {"2"}, {"3"}}))
	require.NoError(t, st.WriteRange(ctx, registry.WholeSheet("View"), [][]any{{"A"}, {"9"}}))

	tbl, err := st.ReadTable(ctx, "View")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"9"}}, tbl.Rows)
}

func TestStore_EnsureAndAppend(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	created, err := st.EnsureSheet(ctx, "Audit")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = st.EnsureSheet(ctx, "Audit")
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, st.AppendRow(ctx, "Audit", []any{"Timestamp", "Run"}))
	require.NoError(t, st.AppendRow(ctx, "Audit", []any{"t1", "r1"}))
	require.NoError(t, st.AppendRow(ctx, "Audit", []any{"t2", "r2"}))

	tbl, err := st.ReadTable(ctx, "Audit")
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp", "Run"}, tbl.Header)
	assert.Equal(t, [][]any{{"t1", "r1"}, {"t2", "r2"}}, tbl.Rows)

	names, err := st.Sheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Audit"}, names)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workbook.db")

	st, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, st.WriteRange(ctx, registry.At("Master", 0, 0), [][]any{{"Name"}, {"Ana"}}))
	require.NoError(t, st.Close())

	st, err = sqlite.New(path)
	require.NoError(t, err)
	defer st.Close()

	tbl, err := st.ReadTable(ctx, "Master")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Ana"}}, tbl.Rows)
}
