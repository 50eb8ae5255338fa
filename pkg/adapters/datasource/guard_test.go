package datasource

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
	sqltext "github.com/sqlscope-inc/sqlscope-engine/pkg/sql"
)

func newTestGuard() *Guard {
	engineRules := []sqltext.DenyRule{
		{Pattern: regexp.MustCompile(`\bload_file\s*\(`), Reason: "file access functions are not allowed"},
	}
	return NewGuard(engineRules, []string{"information_schema.", "mysql."})
}

func TestGuard_SanitizeQuery(t *testing.T) {
	g := newTestGuard()

	t.Run("clean query passes normalized", func(t *testing.T) {
		got, err := g.SanitizeQuery("SELECT * FROM users WHERE id = 1;")
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM users WHERE id = 1", got)
	})

	t.Run("base rule rejects", func(t *testing.T) {
		_, err := g.SanitizeQuery("DROP TABLE users")
		require.Error(t, err)
		assert.True(t, apperrors.IsRejected(err))
	})

	t.Run("engine rule rejects", func(t *testing.T) {
		_, err := g.SanitizeQuery("SELECT load_file('/etc/passwd')")
		require.Error(t, err)
		assert.True(t, apperrors.IsRejected(err))
	})

	t.Run("multiple statements reject", func(t *testing.T) {
		_, err := g.SanitizeQuery("SELECT 1; SELECT 2")
		require.Error(t, err)
		assert.True(t, apperrors.IsRejected(err))
	})

	t.Run("empty query rejects", func(t *testing.T) {
		_, err := g.SanitizeQuery("   ")
		require.Error(t, err)
		assert.True(t, apperrors.IsRejected(err))
	})
}

func TestGuard_ValidateSelectQuery(t *testing.T) {
	g := newTestGuard()

	t.Run("select passes", func(t *testing.T) {
		got, err := g.ValidateSelectQuery("SELECT name FROM users")
		require.NoError(t, err)
		assert.Equal(t, "SELECT name FROM users", got)
	})

	t.Run("cte select passes", func(t *testing.T) {
		query := "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent"
		got, err := g.ValidateSelectQuery(query)
		require.NoError(t, err)
		assert.Equal(t, query, got)
	})

	t.Run("show rejected", func(t *testing.T) {
		_, err := g.ValidateSelectQuery("SHOW TABLES")
		require.Error(t, err)
		assert.True(t, apperrors.IsRejected(err))
	})
}

func TestGuard_ExtractTableNames(t *testing.T) {
	g := newTestGuard()

	t.Run("bare names lowered", func(t *testing.T) {
		names := g.ExtractTableNames("SELECT * FROM Users u JOIN Orders o ON u.id = o.user_id")
		assert.Equal(t, []string{"users", "orders"}, names)
	})

	t.Run("catalog refs filtered", func(t *testing.T) {
		names := g.ExtractTableNames("SELECT * FROM users JOIN information_schema.tables ON 1=1")
		assert.Equal(t, []string{"users"}, names)
	})

	t.Run("schema qualifier stripped after filter", func(t *testing.T) {
		names := g.ExtractTableNames("SELECT * FROM public.users")
		assert.Equal(t, []string{"users"}, names)
	})
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back to cap", 0, MaxQueryLimit},
		{"negative falls back to cap", -5, MaxQueryLimit},
		{"within range preserved", 50, 50},
		{"at cap preserved", MaxQueryLimit, MaxQueryLimit},
		{"above cap clamped", 5000, MaxQueryLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.limit))
		})
	}
}
