package sqlstore

import (
	"testing"

	"phmagent/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN_Postgres(t *testing.T) {
	dsn, err := DSN(config.DatabaseConfig{
		Driver: config.DriverPostgres, Host: "db", Port: 5432,
		User: "phm", Password: "p@ss", Name: "phm", SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://phm:p%40ss@db:5432/phm?sslmode=disable", dsn)
}

func TestDSN_MySQLForcesParseTime(t *testing.T) {
	dsn, err := DSN(config.DatabaseConfig{
		Driver: config.DriverMySQL, Host: "10.0.0.5", Port: 8306,
		User: "user_class", Password: "secret", Name: "phm",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "user_class:secret@tcp(10.0.0.5:8306)/phm")
	assert.Contains(t, dsn, "parseTime=true")

	dsn, err = DSN(config.DatabaseConfig{Driver: config.DriverMySQL, URL: "root:pw@tcp(localhost:3306)/phm"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDialectFor(t *testing.T) {
	_, err := DialectFor("sqlite3")
	assert.Error(t, err)

	d, err := DialectFor("postgres")
	require.NoError(t, err)
	quoted, err := d.Quote("Vibration")
	require.NoError(t, err)
	assert.Equal(t, `"Vibration"`, quoted)

	_, err = d.Quote(`bad"name`)
	assert.Error(t, err)
	_, err = d.Quote("")
	assert.Error(t, err)
}
