package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/reminder-engine/registry"
)

func testSchema() registry.SchemaMap {
	header := []string{"Name", "Plate", "Email", "Phone", "Last Service", "Next Reminder", "Contact Status", "Last Notified", "Last Notified Tier"}
	return registry.ResolveSchema(header, registry.DefaultSynonyms()).Schema
}

func names(records []*registry.CustomerRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestReconcile_DerivesFields(t *testing.T) {
	rows := [][]any{
		{"Zoe", "ABC-1", "zoe@example.com", "", "2024-01-31", "1999-01-01", "", "2024-04-30", "advance"},
		{"adam", "XYZ-9", "", "555-0101", float64(45453)},
		{"Nobody", "", "", "", "not a date"},
	}
	rec := registry.Reconcile(testSchema(), rows, 3)
	require.Len(t, rec.Records, 3)

	zoe := rec.Records[0]
	assert.Equal(t, 0, zoe.SourcePosition)
	assert.Equal(t, 1, zoe.SheetRow())
	assert.Equal(t, "2024-01-31", zoe.LastServiceDate.String())
	assert.Equal(t, "2024-04-30", zoe.NextReminderDate.String(), "stored next reminder is ignored")
	assert.Equal(t, registry.ContactComplete, zoe.ContactStatus)
	assert.Equal(t, "2024-04-30", zoe.LastNotifiedDate.String())
	assert.Equal(t, "ADVANCE", zoe.LastNotifiedTier)

	adam := rec.Records[1]
	assert.Equal(t, "2024-06-10", adam.LastServiceDate.String(), "short row with serial date")
	assert.Equal(t, "2024-09-10", adam.NextReminderDate.String())
	assert.Equal(t, registry.ContactComplete, adam.ContactStatus)
	assert.True(t, adam.LastNotifiedDate.IsZero())
	assert.NoError(t, adam.DateErr)

	nobody := rec.Records[2]
	assert.True(t, nobody.LastServiceDate.IsZero())
	assert.True(t, nobody.NextReminderDate.IsZero())
	assert.Equal(t, registry.ContactMissing, nobody.ContactStatus)
	assert.ErrorIs(t, nobody.DateErr, registry.ErrParse)
	assert.Contains(t, nobody.DateErr.Error(), "not a date")
}

func TestReconcile_BlankDateIsNotAParseError(t *testing.T) {
	rec := registry.Reconcile(testSchema(), [][]any{{"Ana", "", "ana@example.com", "", "  "}}, 3)
	require.Len(t, rec.Records, 1)
	assert.NoError(t, rec.Records[0].DateErr)
	assert.True(t, rec.Records[0].NextReminderDate.IsZero())
}

func TestReconcile_SortedProjectionIsStableAndCaseInsensitive(t *testing.T) {
	rows := [][]any{
		{"bob", "1"},
		{"Alice", "2"},
		{"BOB", "3"},
		{"alice", "4"},
		{"Carl", "5"},
	}
	rec := registry.Reconcile(testSchema(), rows, 3)

	assert.Equal(t, []string{"bob", "Alice", "BOB", "alice", "Carl"}, names(rec.Records), "source order kept")
	assert.Equal(t, []string{"Alice", "alice", "bob", "BOB", "Carl"}, names(rec.Sorted))

	again := registry.SortByName(rec.Sorted)
	assert.Equal(t, rec.Sorted, again, "sorting is idempotent")
}

func TestContactStatusOf(t *testing.T) {
	assert.Equal(t, registry.ContactMissing, registry.ContactStatusOf("", ""))
	assert.Equal(t, registry.ContactMissing, registry.ContactStatusOf("  ", "\t"))
	assert.Equal(t, registry.ContactComplete, registry.ContactStatusOf("a@b.c", ""))
	assert.Equal(t, registry.ContactComplete, registry.ContactStatusOf("", "555"))
}
