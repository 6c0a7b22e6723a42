package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clients.db")
	store, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunClientStoreContract(t, store)
}

func TestSQLiteStore_Directory(t *testing.T) {
	store, _ := newStore(t)
	ports.RunDirectoryContract(t, store)
}

func TestSQLiteStore_DirectorySurvivesReopen(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutOrganization(ctx, &domain.Organization{ID: "org", Name: "Acme", JoinCode: "AB12-CD34"}))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	org, err := reopened.FindByJoinCode(ctx, "AB12-CD34")
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := New("file:clientsmem?mode=memory&cache=shared")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	c := &domain.Client{ID: "c1", OrganizationID: "org", CreatedAt: time.Now()}
	require.NoError(t, store.Put(ctx, c))
	assert.Equal(t, int64(1), c.Version)
}

func TestSQLiteStore_Persistence(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	c := &domain.Client{
		ID:             "c1",
		OrganizationID: "org",
		PipelineStage:  domain.StageBudgetProcessing,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, store.Put(ctx, c))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "org", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageBudgetProcessing, got.PipelineStage)
	assert.Equal(t, int64(1), got.Version)

	got.PipelineStage = domain.StageDocumentManagement
	require.NoError(t, reopened.Put(ctx, got))
	assert.Equal(t, int64(2), got.Version)
}
