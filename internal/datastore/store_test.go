package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"eyedash/domain/table"
	"eyedash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoizesByMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	loads := 0
	store := NewStore(func(string) (*table.Table, error) {
		loads++
		return table.New([]string{"a"}), nil
	})

	_, err := store.Load(path)
	require.NoError(t, err)
	_, err = store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loads, "unchanged file must be served from cache")

	// Touch the file with a clearly different mtime.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	_, err = store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "mtime change must trigger exactly one reload")
}

func TestLoad_MissingFile(t *testing.T) {
	store := NewStore(func(string) (*table.Table, error) {
		t.Fatal("loader must not run for missing files")
		return nil, nil
	})

	_, err := store.Load("/nonexistent/file.xlsx")
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataSourceMissing, errors.GetCode(err))
}

func TestInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	loads := 0
	store := NewStore(func(string) (*table.Table, error) {
		loads++
		return table.New([]string{"a"}), nil
	})

	_, _ = store.Load(path)
	store.Invalidate(path)
	_, _ = store.Load(path)
	assert.Equal(t, 2, loads)
}
