package sql

import (
	"errors"
	"testing"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/apperrors"
)

func TestNormalizeStatement_ValidQueries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple select without semicolon",
			input:    "SELECT 1",
			expected: "SELECT 1",
		},
		{
			name:     "simple select with trailing semicolon",
			input:    "SELECT 1;",
			expected: "SELECT 1",
		},
		{
			name:     "select with trailing semicolon and whitespace",
			input:    "SELECT 1;  ",
			expected: "SELECT 1",
		},
		{
			name:     "select with leading and trailing whitespace",
			input:    "  SELECT * FROM users  ",
			expected: "SELECT * FROM users",
		},
		{
			name:     "semicolon inside single quoted string",
			input:    "SELECT * FROM users WHERE name = 'test;test'",
			expected: "SELECT * FROM users WHERE name = 'test;test'",
		},
		{
			name:     "semicolon inside double quoted identifier",
			input:    `SELECT * FROM "table;name"`,
			expected: `SELECT * FROM "table;name"`,
		},
		{
			name:     "SQL standard escaped single quote",
			input:    "SELECT * FROM users WHERE name = 'O''Brien'",
			expected: "SELECT * FROM users WHERE name = 'O''Brien'",
		},
		{
			name:     "semicolon inside string with trailing semicolon",
			input:    "SELECT * FROM users WHERE name = 'test;test';",
			expected: "SELECT * FROM users WHERE name = 'test;test'",
		},
		{
			name:     "query with newlines",
			input:    "SELECT *\nFROM users\nWHERE id = 1;",
			expected: "SELECT *\nFROM users\nWHERE id = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeStatement(tt.input)
			if err != nil {
				t.Fatalf("NormalizeStatement(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeStatement(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeStatement_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "empty string",
			input:   "",
			wantErr: apperrors.ErrEmptyQuery,
		},
		{
			name:    "whitespace only",
			input:   "   \n\t",
			wantErr: apperrors.ErrEmptyQuery,
		},
		{
			name:    "two statements",
			input:   "SELECT 1; SELECT 2",
			wantErr: apperrors.ErrMultipleStatements,
		},
		{
			name:    "piggybacked drop",
			input:   "SELECT * FROM users; DROP TABLE users",
			wantErr: apperrors.ErrMultipleStatements,
		},
		{
			name:    "semicolon after closed string",
			input:   "SELECT 'ok'; DELETE FROM users",
			wantErr: apperrors.ErrMultipleStatements,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeStatement(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NormalizeStatement(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and collapses whitespace",
			input:    "SELECT  *\n FROM   Users",
			expected: "select * from users",
		},
		{
			name:     "strips trailing semicolon",
			input:    "select 1;",
			expected: "select 1",
		},
		{
			name:     "already canonical",
			input:    "select id from orders",
			expected: "select id from orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHash_StableAcrossFormatting(t *testing.T) {
	a := Hash("SELECT * FROM users WHERE id = 1")
	b := Hash("select *   from users\nwhere id = 1;")
	if a != b {
		t.Errorf("equivalent queries hash differently: %s vs %s", a, b)
	}

	c := Hash("SELECT * FROM orders")
	if a == c {
		t.Errorf("distinct queries share hash %s", a)
	}
}

func TestIsReadOnlySelect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain select", "SELECT * FROM users", true},
		{"lowercase select", "select 1", true},
		{"cte select", "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent", true},
		{"cte with delete", "WITH gone AS (DELETE FROM orders RETURNING *) SELECT * FROM gone", false},
		{"cte with update", "WITH u AS (UPDATE users SET name='x' RETURNING id) SELECT * FROM u", false},
		{"insert", "INSERT INTO users VALUES (1)", false},
		{"delete", "DELETE FROM users", false},
		{"show", "SHOW TABLES", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadOnlySelect(tt.input); got != tt.want {
				t.Errorf("IsReadOnlySelect(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
