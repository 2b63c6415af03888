package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLevelAcceptsKnownLevels(t *testing.T) {
	assert.NoError(t, ValidateLevel("info"))
	assert.NoError(t, ValidateLevel("warn"))
	assert.NoError(t, ValidateLevel(""))
}

func TestValidateLevelRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, ValidateLevel("not-a-level"))
}

func TestAuditLogRecordWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	a := NewAuditLog(RotationConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	a.Record("startup_failed", map[string]any{"chain_id": uint64(1)})
	require.NoError(t, a.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "startup_failed")
	assert.Contains(t, string(data), "chain_id")
}
