package cursorreg

import (
	"testing"

	"github.com/oba-index/buckettree/internal/locator"
	"github.com/stretchr/testify/require"
)

type recordingCursor struct {
	notified []locator.Locator
}

func (c *recordingCursor) AboutToDeleteBucket(loc locator.Locator) {
	c.notified = append(c.notified, loc)
}

func TestInformNotifiesAllRegisteredCursors(t *testing.T) {
	r := New()
	a := &recordingCursor{}
	b := &recordingCursor{}
	r.Register(a)
	r.Register(b)

	loc := locator.Locator{File: 0, Offset: 7}
	r.InformAboutToDeleteBucket(loc)

	require.Equal(t, []locator.Locator{loc}, a.notified)
	require.Equal(t, []locator.Locator{loc}, b.notified)
}

func TestUnregisterStopsNotifications(t *testing.T) {
	r := New()
	a := &recordingCursor{}
	id := r.Register(a)
	r.Unregister(id)

	r.InformAboutToDeleteBucket(locator.Locator{Offset: 1})
	require.Empty(t, a.notified)
	require.Equal(t, 0, r.Count())
}
