package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunner_Version(t *testing.T) {
	assert.Equal(t, "1.0.0", NewRunner().Version())
}

func TestRunner_StatementsIdempotent(t *testing.T) {
	stmts := NewRunner().Statements()
	assert.Len(t, stmts, 3)
	for _, s := range stmts {
		assert.Contains(t, s, "IF NOT EXISTS", "statement must be safe to re-run: %s", strings.TrimSpace(s))
	}
	assert.Contains(t, stmts[0], "payload JSONB")
}

func TestRunner_ImplementsMigrator(t *testing.T) {
	var _ Migrator = NewRunner()
}
