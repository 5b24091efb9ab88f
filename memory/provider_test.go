package memory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinedb/vine/memory"
	"github.com/vinedb/vine/sql"
)

func TestProviderDatabaseLookup(t *testing.T) {
	ctx := sql.NewEmptyContext()
	db := memory.NewDatabase("mydb")
	p := memory.NewProvider(db)

	require.True(t, p.HasDatabase(ctx, "MYDB"))
	got, err := p.Database(ctx, "mydb")
	require.NoError(t, err)
	require.Equal(t, "mydb", got.Name())

	_, err = p.Database(ctx, "nope")
	require.Error(t, err)

	require.Len(t, p.AllDatabases(ctx), 1)
}

func TestProviderAddDropDatabase(t *testing.T) {
	ctx := sql.NewEmptyContext()
	p := memory.NewProvider()
	require.False(t, p.HasDatabase(ctx, "mydb"))

	p.AddDatabase(memory.NewDatabase("mydb"))
	require.True(t, p.HasDatabase(ctx, "mydb"))

	p.DropDatabase("mydb")
	require.False(t, p.HasDatabase(ctx, "mydb"))
}

func TestProviderToCatalog(t *testing.T) {
	p := memory.NewProvider(memory.NewDatabase("mydb"))
	cat := p.ToCatalog()
	require.True(t, cat.DatabaseExists("mydb"))
}

var _ sql.DatabaseProvider = (*memory.Provider)(nil)
