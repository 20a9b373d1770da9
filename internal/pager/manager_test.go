package pager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Pager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bkt")
	p, err := Open(path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	return p
}

func TestAllocateWriteRead(t *testing.T) {
	p := openTemp(t)

	loc, err := p.Allocate()
	require.NoError(t, err)
	require.False(t, loc.IsNull())

	page, err := p.Read(loc)
	require.NoError(t, err)
	page.Body[0] = 0xAB

	require.NoError(t, p.Write(loc, page))

	reread, err := p.Read(loc)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), reread.Body[0])
}

func TestFreeThenAllocateReuses(t *testing.T) {
	p := openTemp(t)

	a, err := p.Allocate()
	require.NoError(t, err)
	b, err := p.Allocate()
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, p.Free(b))

	c, err := p.Allocate()
	require.NoError(t, err)
	require.Equal(t, b, c)
}

func TestReopenPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bkt")
	p, err := Open(path, Options{})
	require.NoError(t, err)

	loc, err := p.Allocate()
	require.NoError(t, err)
	page, err := p.Read(loc)
	require.NoError(t, err)
	page.Body[5] = 0x42
	require.NoError(t, p.Write(loc, page))
	require.NoError(t, p.Close())

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	defer reopened.Close()

	reread, err := reopened.Read(loc)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), reread.Body[5])
}
