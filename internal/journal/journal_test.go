package journal

import (
	"path/filepath"
	"testing"

	"github.com/oba-index/buckettree/internal/pager"
	"github.com/stretchr/testify/require"
)

func TestBeginWritingCommit(t *testing.T) {
	dir := t.TempDir()
	pg, err := pager.Open(filepath.Join(dir, "data.bkt"), pager.Options{})
	require.NoError(t, err)
	defer pg.Close()

	j, err := Open(filepath.Join(dir, "journal.log"), pg)
	require.NoError(t, err)
	defer j.Close()

	loc, err := pg.Allocate()
	require.NoError(t, err)
	before, err := pg.Read(loc)
	require.NoError(t, err)

	frame, err := j.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.Writing(loc, before.Body))

	after, err := pg.Read(loc)
	require.NoError(t, err)
	after.Body[0] = 0x7A
	require.NoError(t, pg.Write(loc, after))

	require.NoError(t, frame.Commit())
}

func TestRecoveryUndoesUncommittedFrame(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.bkt")
	journalPath := filepath.Join(dir, "journal.log")

	pg, err := pager.Open(dataPath, pager.Options{})
	require.NoError(t, err)

	loc, err := pg.Allocate()
	require.NoError(t, err)
	original, err := pg.Read(loc)
	require.NoError(t, err)
	original.Body[0] = 0x11
	require.NoError(t, pg.Write(loc, original))

	j, err := Open(journalPath, pg)
	require.NoError(t, err)

	before, err := pg.Read(loc)
	require.NoError(t, err)

	frame, err := j.Begin()
	require.NoError(t, err)
	require.NoError(t, frame.Writing(loc, before.Body))

	mutated, err := pg.Read(loc)
	require.NoError(t, err)
	mutated.Body[0] = 0x22
	require.NoError(t, pg.Write(loc, mutated))

	// Simulate a crash: no Commit, close both without aborting.
	require.NoError(t, j.Close())
	require.NoError(t, pg.Close())

	pg2, err := pager.Open(dataPath, pager.Options{})
	require.NoError(t, err)
	defer pg2.Close()

	j2, err := Open(journalPath, pg2)
	require.NoError(t, err)
	defer j2.Close()

	restored, err := pg2.Read(loc)
	require.NoError(t, err)
	require.Equal(t, byte(0x11), restored.Body[0])
}
