package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	sql := `
-- comment line
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (y UInt8) ENGINE = Memory;
`
	stmts, err := splitStatements(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y UInt8) ENGINE = Memory", stmts[1])
}

func TestSplitStatements_TrailingStatementWithoutSemicolon(t *testing.T) {
	stmts, err := splitStatements("SELECT 1;\nSELECT 2\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, stmts)
}

func TestSplitStatements_QuotedLiterals(t *testing.T) {
	stmts, err := splitStatements(`SELECT 'it''s' ;`)
	require.NoError(t, err)
	assert.Equal(t, []string{`SELECT 'it''s'`}, stmts)

	_, err = splitStatements(`SELECT 'a;b'`)
	assert.ErrorIs(t, err, errQuotedSemicolon)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/allocator")
	require.NoError(t, err)
	assert.Equal(t, "allocator", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	for _, dir := range []string{"postgres", "clickhouse"} {
		files, err := load(dir)
		require.NoError(t, err)
		require.NotEmpty(t, files, dir)

		for _, m := range files {
			stmts, err := splitStatements(m.sql)
			assert.NoError(t, err, m.name)
			assert.NotEmpty(t, stmts, m.name)
		}
	}
}

func TestLoad_OrderedByName(t *testing.T) {
	files, err := load("clickhouse")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_price_bars.sql", files[0].name)
	assert.Equal(t, "002_daily_closes_view.sql", files[1].name)
}
