package breakpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	var db DB
	require.True(t, db.IsEmpty(), "fresh DB must be empty")
	db.Set(0x1000, BreakMem)
	require.Equal(t, uint32(BreakMem), db.Get(0x1000))
	require.False(t, db.IsEmpty(), "DB with one entry must not be empty")
}

func TestSetZeroRemoves(t *testing.T) {
	var db DB
	db.Set(0x2000, BreakHW)
	db.Set(0x2000, 0)
	require.Zero(t, db.Get(0x2000))
	require.True(t, db.IsEmpty(), "DB must be empty after clearing its only entry")
}

func TestMultipleAddresses(t *testing.T) {
	var db DB
	db.Set(1, BreakHW)
	db.Set(2, WatchRead)
	db.Set(3, WatchWrite)
	db.Set(2, 0)
	require.False(t, db.IsEmpty())
	require.Equal(t, uint32(BreakHW), db.Get(1))
	require.Zero(t, db.Get(2))
	require.Equal(t, uint32(WatchWrite), db.Get(3))
}

func TestGetAbsentIsZero(t *testing.T) {
	var db DB
	require.Zero(t, db.Get(0xdeadbeef))
}
