package sink_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/proullon/ramsql/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/sink"
)

func openRamSQL(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("ramsql", t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func TestNewSQL_Validation(t *testing.T) {
	t.Parallel()

	_, err := sink.NewSQL(nil, "", nil)
	require.Error(t, err)

	db := openRamSQL(t)
	_, err = sink.NewSQL(db, "submissions; DROP TABLE x", nil)
	require.ErrorContains(t, err, "invalid table name")
}

func TestSQL_DeliverStoresRedactedRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := sink.NewSQL(openRamSQL(t), "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrate is idempotent")

	first := testSubmission()
	second := testSubmission()
	second.Record = collect.Record{
		"email":       collect.Single("c@d.com"),
		"acquisition": collect.Multi(),
	}
	other := testSubmission()
	other.Form = "newsletter"

	for _, s := range []sink.Submission{first, second, other} {
		require.NoError(t, store.Deliver(ctx, s))
	}

	got, err := store.ByForm(ctx, "signup")
	require.NoError(t, err)
	require.Len(t, got, 2)
	byID := make(map[string]sink.Submission, len(got))
	for _, s := range got {
		byID[s.ID] = s
	}

	stored, ok := byID[first.ID]
	require.True(t, ok)
	assert.True(t, first.ReceivedAt.Equal(stored.ReceivedAt))
	assert.Equal(t, sink.RedactedValue, stored.Record.String("password"))
	assert.Equal(t, []string{"google", "friend"}, stored.Record.Strings("acquisition"))

	stored, ok = byID[second.ID]
	require.True(t, ok)
	assert.Equal(t, "c@d.com", stored.Record.String("email"))
	value, ok := stored.Record.Get("acquisition")
	require.True(t, ok)
	assert.True(t, value.IsMulti())
	assert.Equal(t, 0, value.Len())
}
