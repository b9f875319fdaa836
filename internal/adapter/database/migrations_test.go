package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm/logger"
)

func TestSplitSQLCommands(t *testing.T) {
	sql := `-- cabeçalho
CREATE INDEX a ON loans (state);
INSERT INTO t VALUES ('x;y'); -- comentário; com ponto e vírgula
-- só comentário;
`
	commands := splitSQLCommands(sql)
	require.Len(t, commands, 2)
	assert.Contains(t, commands[0], "CREATE INDEX a")
	assert.Contains(t, commands[1], "'x;y'")
}

func TestApplyMigrations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_loans_state.sql"),
		[]byte("CREATE INDEX idx_test_loans_state ON loans (state);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leiame.txt"), []byte("ignorado"), 0o644))

	db, err := NewDatabase(ctx, Config{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
		MigrationDir: dir,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var applied []Migration
	require.NoError(t, db.DB().Find(&applied).Error)
	require.Len(t, applied, 1)
	assert.Equal(t, int64(20250101000000), applied[0].Version)
	assert.Equal(t, "loans_state", applied[0].Name)

	// segunda execução não reaplica
	count, err := db.migration.ApplyMigrations(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	path, err := db.CreateMigration("Nova Coluna")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "_nova_coluna.sql")
}
