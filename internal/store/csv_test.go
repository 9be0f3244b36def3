package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmago/colmago/internal/testutil"
)

func newCSVTestStore(t *testing.T) (*Store, *testutil.TestEnv) {
	t.Helper()
	env := testutil.NewTestEnv(t)
	st := New(context.Background(), Options{BackupDir: env.Path("data_backup")})
	require.Equal(t, ModeCSV, st.Mode())
	return st, env
}

func TestLocalRoundTrip(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	assert.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))
	assert.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis"}))

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 2)

	// Insertion order is preserved and ids are assigned max-plus-one
	assert.Equal(t, "1", records[0]["id"])
	assert.Equal(t, "Ana", records[0]["nombre"])
	assert.Equal(t, "2", records[1]["id"])
	assert.Equal(t, "Luis", records[1]["nombre"])
}

func TestInsertKeepsExplicitID(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	assert.True(t, st.Insert(ctx, "clientes", Record{"id": "7", "nombre": "Ana"}))
	assert.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis"}))

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 2)
	assert.Equal(t, "7", records[0]["id"])
	assert.Equal(t, "8", records[1]["id"])
}

func TestInsertDoesNotMutateCallerRecord(t *testing.T) {
	st, _ := newCSVTestStore(t)

	record := Record{"nombre": "Ana"}
	assert.True(t, st.Insert(context.Background(), "clientes", record))

	_, hasID := record["id"]
	assert.False(t, hasID)
}

func TestSelectFilterExactness(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana", "ciudad": "X"}))
	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis", "ciudad": "Y"}))

	records := st.Select(ctx, "clientes", map[string]any{"ciudad": "X"})
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0]["id"])

	// Every filter field must match
	records = st.Select(ctx, "clientes", map[string]any{"ciudad": "X", "nombre": "Luis"})
	assert.Empty(t, records)

	// A filter on an unknown field matches nothing
	records = st.Select(ctx, "clientes", map[string]any{"telefono": "555"})
	assert.Empty(t, records)
}

func TestUpdateMergeSemantics(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana", "ciudad": "X"}))
	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis", "ciudad": "Y"}))

	assert.True(t, st.Update(ctx, "clientes", 1, Record{"ciudad": "Z"}))

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 2)

	// Listed fields are overwritten, others preserved
	assert.Equal(t, "Ana", records[0]["nombre"])
	assert.Equal(t, "Z", records[0]["ciudad"])
	// Other records are untouched
	assert.Equal(t, "Y", records[1]["ciudad"])
}

func TestUpdateNonexistentIDSucceeds(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))

	// No matching id reports success with no state change
	assert.True(t, st.Update(ctx, "clientes", 99, Record{"nombre": "Luis"}))

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0]["nombre"])
}

func TestUpdateFirstMatchOnly(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"id": "1", "nombre": "Ana"}))
	require.True(t, st.Insert(ctx, "clientes", Record{"id": "1", "nombre": "Luis"}))

	assert.True(t, st.Update(ctx, "clientes", 1, Record{"nombre": "Eva"}))

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 2)
	assert.Equal(t, "Eva", records[0]["nombre"])
	assert.Equal(t, "Luis", records[1]["nombre"])
}

func TestDeleteIdempotence(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))
	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis"}))

	assert.True(t, st.Delete(ctx, "clientes", 1))
	assert.True(t, st.Delete(ctx, "clientes", 1))

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 1)
	assert.Equal(t, "Luis", records[0]["nombre"])
}

// A table that ends up with zero records is never written, so deleting the
// last record leaves the previous file contents on disk. This mirrors the
// original application's persistence rule.
func TestDeleteLastRecordLeavesFile(t *testing.T) {
	st, env := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))

	assert.True(t, st.Delete(ctx, "clientes", 1))

	assert.True(t, env.FileExists("data_backup/clientes.csv"))
	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0]["nombre"])
}

func TestEmptyTableRead(t *testing.T) {
	st, _ := newCSVTestStore(t)

	records := st.Select(context.Background(), "ventas", nil)
	assert.Empty(t, records)
}

func TestMalformedFileContainment(t *testing.T) {
	st, env := newCSVTestStore(t)
	ctx := context.Background()

	// Row with more fields than the header
	env.WriteFileString("data_backup/clientes.csv", "id,nombre\n1,Ana,extra\n")

	assert.Empty(t, st.Select(ctx, "clientes", nil))
	assert.False(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis"}))
	assert.False(t, st.Update(ctx, "clientes", 1, Record{"nombre": "Luis"}))
	assert.False(t, st.Delete(ctx, "clientes", 1))
}

func TestInsertNonNumericIDFails(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"id": "abc", "nombre": "Ana"}))

	// Assigning the next id requires the existing ids to be integers
	assert.False(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis"}))
}

func TestUpdateWithNewFieldFails(t *testing.T) {
	st, _ := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))

	// The header is derived from the first record; a merge introducing an
	// unknown field cannot be persisted
	assert.False(t, st.Update(ctx, "clientes", 1, Record{"telefono": "555"}))

	// The table file is left untouched
	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0]["nombre"])
}

func TestCSVLayout(t *testing.T) {
	st, env := newCSVTestStore(t)
	ctx := context.Background()

	require.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana", "ciudad": "X"}))

	content := env.ReadFileString("data_backup/clientes.csv")
	assert.Equal(t, "id,ciudad,nombre\n1,X,Ana\n", content)
}

func TestFieldOrder(t *testing.T) {
	fields := fieldOrder(map[string]any{"nombre": "Ana", "id": "1", "ciudad": "X"})
	assert.Equal(t, []string{"id", "ciudad", "nombre"}, fields)

	fields = fieldOrder(map[string]any{"nombre": "Ana"})
	assert.Equal(t, []string{"nombre"}, fields)
}
