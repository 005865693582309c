package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "el", cfg.Period.Locale)
	assert.Equal(t, "Europe/Athens", cfg.Period.Timezone)
	assert.Equal(t, 3, cfg.Match.DateToleranceDays)
	assert.Equal(t, "0.01", cfg.Match.AmountTolerance.String())
	assert.Equal(t, 5*time.Second, cfg.Match.LockTimeout)
	assert.Equal(t, 4, cfg.App.ExportConcurrency)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]interface{}{
		"STORAGE_DRIVER":       "POSTGRES",
		"DB_NAME":              "ledger_test",
		"MATCH_LOCK_TIMEOUT":   "750ms",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"BATCH_SIZE":           0,
	}))
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Database.Driver)
	assert.Contains(t, cfg.Database.ConnectionString(), "dbname=ledger_test")
	assert.Equal(t, 750*time.Millisecond, cfg.Match.LockTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 500, cfg.App.BatchSize)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"driver":    {"STORAGE_DRIVER": "sqlite"},
		"tolerance": {"MATCH_AMOUNT_TOLERANCE": "-1"},
		"timeout":   {"MATCH_LOCK_TIMEOUT": "soon"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newViper(overrides))
			assert.Error(t, err)
		})
	}
}

func TestPeriodConfig_Location(t *testing.T) {
	p := PeriodConfig{Timezone: "UTC"}
	loc, err := p.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	p.Timezone = "Mars/Olympus"
	_, err = p.Location()
	assert.Error(t, err)
}
