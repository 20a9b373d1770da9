package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeBulkInput(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&buf, `{"key": %d, "file": 0, "offset": %d}`+"\n", i, int64(i)*64)
	}
	path := filepath.Join(t.TempDir(), "input.ndjson")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestBulkloadBuildsValidatableIndex(t *testing.T) {
	input := writeBulkInput(t, 500)
	dir := t.TempDir()

	code := bulkloadCmd([]string{"-dir", dir, "-name", "idx", "-input", input})
	require.Equal(t, 0, code)

	require.FileExists(t, filepath.Join(dir, "idx.bkt"))
	require.FileExists(t, filepath.Join(dir, "idx.meta.json"))

	require.Equal(t, 0, validateCmd([]string{"-dir", dir, "-name", "idx"}))
	require.Equal(t, 0, dumpCmd([]string{"-dir", dir, "-name", "idx"}))
}

func TestBulkloadRejectsOutOfOrderKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"key": 5, "file": 0, "offset": 0}`+"\n"+
			`{"key": 1, "file": 0, "offset": 64}`+"\n",
	), 0o644))

	dir := t.TempDir()
	code := bulkloadCmd([]string{"-dir", dir, "-name", "idx", "-input", path})
	require.Equal(t, 1, code)
}

func TestValidateRejectsMissingIndex(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, 1, validateCmd([]string{"-dir", dir, "-name", "missing"}))
}
