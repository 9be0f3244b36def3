package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmago/colmago/internal/testutil"
)

// fakeRemote implements Remote for mode-selection and routing tests.
type fakeRemote struct {
	probeErr   error
	opErr      error
	rows       []map[string]any
	probeTable string
	inserted   map[string]any
	updatedID  int
	deletedID  int
}

func (f *fakeRemote) Select(_ context.Context, table string, filters map[string]any, limit int) ([]map[string]any, error) {
	if limit == 1 {
		f.probeTable = table
		return nil, f.probeErr
	}
	if f.opErr != nil {
		return nil, f.opErr
	}
	return f.rows, nil
}

func (f *fakeRemote) Insert(_ context.Context, table string, record map[string]any) error {
	f.inserted = record
	return f.opErr
}

func (f *fakeRemote) Update(_ context.Context, table string, id int, record map[string]any) error {
	f.updatedID = id
	return f.opErr
}

func (f *fakeRemote) Delete(_ context.Context, table string, id int) error {
	f.deletedID = id
	return f.opErr
}

func TestModeRemoteWhenProbeSucceeds(t *testing.T) {
	remote := &fakeRemote{}
	st := New(context.Background(), Options{Remote: remote, BackupDir: t.TempDir()})

	assert.Equal(t, ModeRemote, st.Mode())
	assert.Equal(t, StatusRemote, st.ConnectionStatus())
	// The validation read goes against the clientes table by default
	assert.Equal(t, "clientes", remote.probeTable)
}

func TestModeCSVWhenProbeFails(t *testing.T) {
	env := testutil.NewTestEnv(t)
	remote := &fakeRemote{probeErr: errors.New("connection refused")}
	st := New(context.Background(), Options{Remote: remote, BackupDir: env.Path("respaldo")})

	assert.Equal(t, ModeCSV, st.Mode())
	assert.Equal(t, StatusCSV, st.ConnectionStatus())
	// The fallback ensures the backup directory exists
	assert.True(t, env.FileExists("respaldo"))
}

func TestModeCSVWhenCredentialsMissing(t *testing.T) {
	env := testutil.NewTestEnv(t)
	st := New(context.Background(), Options{BackupDir: env.Path("respaldo")})

	assert.Equal(t, ModeCSV, st.Mode())
	assert.Equal(t, StatusCSV, st.ConnectionStatus())
	assert.True(t, env.FileExists("respaldo"))
}

func TestRemoteOperationsRoute(t *testing.T) {
	remote := &fakeRemote{rows: []map[string]any{{"id": float64(1), "nombre": "Ana"}}}
	st := New(context.Background(), Options{Remote: remote, BackupDir: t.TempDir()})
	ctx := context.Background()

	records := st.Select(ctx, "clientes", nil)
	require.Len(t, records, 1)
	assert.Equal(t, "Ana", records[0]["nombre"])

	assert.True(t, st.Insert(ctx, "clientes", Record{"nombre": "Luis"}))
	assert.Equal(t, "Luis", remote.inserted["nombre"])

	assert.True(t, st.Update(ctx, "clientes", 3, Record{"nombre": "Eva"}))
	assert.Equal(t, 3, remote.updatedID)

	assert.True(t, st.Delete(ctx, "clientes", 4))
	assert.Equal(t, 4, remote.deletedID)
}

func TestRemoteFailureContainment(t *testing.T) {
	remote := &fakeRemote{}
	st := New(context.Background(), Options{Remote: remote, BackupDir: t.TempDir()})
	require.Equal(t, ModeRemote, st.Mode())

	// Failures after startup do not trigger a fallback; they surface as
	// neutral results
	remote.opErr = errors.New("backend unavailable")
	ctx := context.Background()

	assert.Empty(t, st.Select(ctx, "clientes", nil))
	assert.False(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))
	assert.False(t, st.Update(ctx, "clientes", 1, Record{"nombre": "Ana"}))
	assert.False(t, st.Delete(ctx, "clientes", 1))
	assert.Equal(t, ModeRemote, st.Mode())
}

func TestZeroValueStoreIsDisconnected(t *testing.T) {
	var st Store
	ctx := context.Background()

	assert.Equal(t, StatusDisconnected, st.ConnectionStatus())
	assert.Empty(t, st.Select(ctx, "clientes", nil))
	assert.False(t, st.Insert(ctx, "clientes", Record{"nombre": "Ana"}))
	assert.False(t, st.Update(ctx, "clientes", 1, nil))
	assert.False(t, st.Delete(ctx, "clientes", 1))
}
