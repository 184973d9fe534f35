package main

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/seed"
)

// Test the embedded filesystem
func TestEmbeddedStaticFS(t *testing.T) {
	entries, err := staticFS.ReadDir("public/http")
	require.NoError(t, err)
	assert.Greater(t, len(entries), 0, "Embedded filesystem should contain files")

	index, err := staticFS.ReadFile("public/http/index.html")
	require.NoError(t, err)
	assert.Contains(t, string(index), "<html")
}

// Test CLI flag parsing
func TestCLIFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name     string
		args     []string
		expected seed.Config
	}{
		{
			name:     "no flags",
			args:     []string{"shelf"},
			expected: seed.Config{SeedData: false, ClearData: false},
		},
		{
			name:     "seed data flag",
			args:     []string{"shelf", "-seed-data"},
			expected: seed.Config{SeedData: true, ClearData: false},
		},
		{
			name:     "clear data flag",
			args:     []string{"shelf", "-clear-data"},
			expected: seed.Config{SeedData: false, ClearData: true},
		},
		{
			name:     "both flags",
			args:     []string{"shelf", "-seed-data", "-clear-data"},
			expected: seed.Config{SeedData: true, ClearData: true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Reset flag state between runs; ParseFlags registers on the
			// global FlagSet.
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
			os.Args = test.args

			config := seed.ParseFlags()
			assert.Equal(t, test.expected.SeedData, config.SeedData)
			assert.Equal(t, test.expected.ClearData, config.ClearData)
		})
	}
}

// Test log level selection
func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "warn", "error"} {
		t.Setenv("SHELF_LOG_LEVEL", level)
		assert.NotNil(t, newLogger())
	}
}
