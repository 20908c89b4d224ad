package configlibsql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	config := Struct{File: filepath.Join(t.TempDir(), "nested", "history.db")}
	require.True(t, config.Enabled())

	db, err := config.OpenDB()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("create table t (v integer)")
	require.NoError(t, err)
	_, err = db.Exec("insert into t (v) values (1)")
	require.NoError(t, err)

	var v int
	require.NoError(t, db.QueryRow("select v from t").Scan(&v))
	require.Equal(t, 1, v)
}

func TestOpenUnconfigured(t *testing.T) {
	config := Struct{}
	require.False(t, config.Enabled())

	_, err := config.OpenDB()
	require.Error(t, err)
}
