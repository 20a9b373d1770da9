package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunNoArgs(t *testing.T) {
	require.Equal(t, 1, run([]string{"bucketidx"}))
}

func TestRunHelp(t *testing.T) {
	for _, args := range [][]string{
		{"bucketidx", "help"},
		{"bucketidx", "-h"},
		{"bucketidx", "--help"},
	} {
		require.Equal(t, 0, run(args))
	}
}

func TestRunUnknownCommand(t *testing.T) {
	require.Equal(t, 1, run([]string{"bucketidx", "unknown"}))
}

func TestRunVersion(t *testing.T) {
	require.Equal(t, 0, run([]string{"bucketidx", "version"}))
	require.Equal(t, 0, run([]string{"bucketidx", "version", "-short"}))
}

func TestRunVersionHelp(t *testing.T) {
	require.Equal(t, 0, run([]string{"bucketidx", "version", "-h"}))
}

func TestRunConfigNoSubcommand(t *testing.T) {
	require.Equal(t, 0, run([]string{"bucketidx", "config"}))
}

func TestRunConfigUnknownSubcommand(t *testing.T) {
	require.Equal(t, 1, run([]string{"bucketidx", "config", "unknown"}))
}

func TestRunConfigInit(t *testing.T) {
	require.Equal(t, 0, run([]string{"bucketidx", "config", "init"}))
}

func TestRunValidateMissingDir(t *testing.T) {
	require.Equal(t, 1, run([]string{"bucketidx", "validate"}))
}

func TestRunBulkloadMissingDir(t *testing.T) {
	require.Equal(t, 1, run([]string{"bucketidx", "bulkload"}))
}
