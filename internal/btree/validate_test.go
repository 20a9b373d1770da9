package btree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFullValidateEmptyTree(t *testing.T) {
	tr := newTestTree(t)
	errs, err := tr.FullValidate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestFullValidateHealthyTree(t *testing.T) {
	tr := newTestTree(t)
	const n = 500
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	errs, err := tr.FullValidate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestFullValidateAfterDeletesStillHealthy(t *testing.T) {
	tr := newTestTree(t)
	const n = 300
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	for i := int64(0); i < n; i += 2 {
		require.NoError(t, tr.Delete(rec(i), doc(i)))
	}
	errs, err := tr.FullValidate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestFullValidateToleratesTombstonedSlots(t *testing.T) {
	tr := newTestTree(t)
	const n = 300
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	// Deletes landing on an internal key mark it unused rather than
	// unlinking it; FullValidate must not treat that hole as corruption.
	for _, mid := range []int64{150, 100, 200, 50, 250} {
		require.NoError(t, tr.Delete(rec(mid), doc(mid)))
	}
	errs, err := tr.FullValidate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestFullValidateHonorsCancellation(t *testing.T) {
	tr := newTestTree(t)
	const n = 500
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.FullValidate(ctx)
	require.Error(t, err)
}
