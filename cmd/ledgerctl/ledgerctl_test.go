package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PERIOD_TIMEZONE", "UTC")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPeriodCommand(t *testing.T) {
	out, err := run(t, "period", "2024-02-29", "--locale", "en")
	require.NoError(t, err)
	assert.Equal(t, "2024-02\tFebruary 2024\t2024-02-01 .. 2024-02-29\n", out)
}

func TestPeriodCommand_Shift(t *testing.T) {
	out, err := run(t, "period", "2024-03-31", "--locale", "en", "--shift", "-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2024-02\t"), out)
}

func TestPeriodCommand_BadDate(t *testing.T) {
	_, err := run(t, "period", "someday", "--locale", "en", "--shift", "0")
	assert.Error(t, err)
}

func TestMonthsCommand(t *testing.T) {
	out, err := run(t, "months", "-n", "4", "--locale", "en")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestMigrateCommand_RejectsUnknownAction(t *testing.T) {
	_, err := run(t, "migrate", "sideways")
	assert.Error(t, err)
}
