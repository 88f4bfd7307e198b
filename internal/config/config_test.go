package config

import (
	"testing"
	"time"

	"phmagent/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"DB_DRIVER", "DATABASE_URL", "DB_USER", "DB_PASS", "DB_NAME", "DB_HOST", "DB_PORT",
		"SENSOR_TABLE", "SENSOR_TIME_COLUMN", "SENSOR_VALUE_COLUMN",
		"OUTLIER_THRESHOLD", "REPORT_CONCURRENCY", "MCP_TRANSPORT", "MCP_SESSION_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "equipment_data", cfg.Sensor.Table)
	assert.Equal(t, 3.0, cfg.Analysis.OutlierThreshold)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
	assert.Equal(t, 30*time.Minute, cfg.MCP.SessionTimeout)
}

func TestLoad_MySQLDefaultsPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("MCP_SESSION_TIMEOUT", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.MCP.SessionTimeout)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":    {"DB_DRIVER": "sqlite"},
		"threshold": {"OUTLIER_THRESHOLD": "0"},
		"columns":   {"SENSOR_TIME_COLUMN": "Time"},
		"transport": {"MCP_TRANSPORT": "sse"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
