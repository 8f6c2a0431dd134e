package csvdir_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reminder-engine/registry"
	"github.com/warp/reminder-engine/store/csvdir"
)

func newStore(t *testing.T) *csvdir.Store {
	t.Helper()
	st, err := csvdir.New(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestStore_ReadMissingSheet(t *testing.T) {
	st := newStore(t)
	_, err := st.ReadTable(context.Background(), "Master")
	assert.ErrorIs(t, err, registry.ErrSheetNotFound)
}

func TestStore_ReadsBOMAndPadsShortRows(t *testing.T) {
	st := newStore(t)
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Email,Last Service\nAna,ana@example.com,2024-01-31\nBo\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), "Master.csv"), data, 0o644))

	tbl, err := st.ReadTable(context.Background(), "Master")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email", "Last Service"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []any{"Bo", "", ""}, tbl.Rows[1])
}

func TestDetectAndDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
		enc  string
	}{
		{"plain utf-8", []byte("José"), "José", "utf-8"},
		{"latin-1", []byte{'J', 'o', 's', 0xE9}, "José", "latin-1"},
		{"utf-16le", []byte{0xFF, 0xFE, 'A', 0, 'b', 0}, "Ab", "utf-16le"},
		{"utf-16be", []byte{0xFE, 0xFF, 0, 'A', 0, 'b'}, "Ab", "utf-16be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, enc, err := csvdir.DetectAndDecode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			assert.Equal(t, tt.enc, enc)
		})
	}
}

func TestStore_WriteAndAppendRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.NoError(t, st.WriteRange(ctx, registry.At("Master", 0, 0), [][]any{
		{"Name", "Last Service"},
		{"Ana", 45322.0},
	}))
	require.NoError(t, st.WriteRange(ctx, registry.At("Master", 0, 2), [][]any{
		{"Next Reminder"},
		{registry.NewDate(2024, 4, 30)},
	}))

	tbl, err := st.ReadTable(ctx, "Master")
	require.NoError(t, err)
	assert.Equal(t, []any{"Ana", "45322", "2024-04-30"}, tbl.Rows[0])

	created, err := st.EnsureSheet(ctx, "Audit")
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, st.AppendRow(ctx, "Audit", []any{"Timestamp"}))
	require.NoError(t, st.AppendRow(ctx, "Audit", []any{"2024-06-10T08:00:00Z"}))

	audit, err := st.ReadTable(ctx, "Audit")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"2024-06-10T08:00:00Z"}}, audit.Rows)

	created, err = st.EnsureSheet(ctx, "Audit")
	require.NoError(t, err)
	assert.False(t, created)
}
