package calllog

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_Memory(t *testing.T) {
	l := Open("")
	require.False(t, l.Persistent())

	l.Record("CA1", EventStarted, "")
	l.Record("CA1", EventUtterance, "answered")
	l.Record("CA2", EventSessionMissing, "")

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	require.Equal(t, EventSessionMissing, recent[0].Event)
	require.Equal(t, EventUtterance, recent[1].Event)

	ca1 := l.ForCall("CA1")
	require.Len(t, ca1, 2)
	require.Equal(t, EventStarted, ca1[0].Event)
	require.Equal(t, "answered", ca1[1].Detail)
	require.NoError(t, l.Close())
}

func TestLog_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.db")
	l := Open(path)
	require.True(t, l.Persistent())

	l.Record("CA1", EventOriginated, "")
	l.Record("CA1", EventStarted, "")
	l.Record("CA1", EventExpired, "idle")
	require.NoError(t, l.Close())

	reopened := Open(path)
	defer reopened.Close()
	require.True(t, reopened.Persistent())

	recent := reopened.Recent(10)
	require.Len(t, recent, 3)
	require.Equal(t, EventExpired, recent[0].Event)
	require.Equal(t, "idle", recent[0].Detail)
	require.False(t, recent[0].CreatedAt.IsZero())

	events := reopened.ForCall("CA1")
	require.Len(t, events, 3)
	require.Equal(t, EventOriginated, events[0].Event)
	require.Empty(t, reopened.ForCall("CA-unknown"))
}

func TestLog_MemoryIsBounded(t *testing.T) {
	l := Open("")
	for i := 0; i < maxMemoryEntries+10; i++ {
		l.Record("CA1", EventSilence, "")
	}
	require.Len(t, l.entries, maxMemoryEntries)
	require.Len(t, l.Recent(maxMemoryEntries+10), maxMemoryEntries)
}

func TestLog_ConcurrentRecord(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "calls.db"))
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Record("CA1", EventUtterance, "answered")
			}
		}()
	}
	wg.Wait()
	require.Len(t, l.ForCall("CA1"), 80)
}
