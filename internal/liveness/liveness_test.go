package liveness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rvcsim/internal/rvc"
)

func frag(reads, writes rvc.RegSet) *rvc.CodeSet {
	return &rvc.CodeSet{Fragments: []rvc.Fragment{{Reads: reads, Writes: writes}}}
}

func TestLiveOutEmptyAtEndOfBlock(t *testing.T) {
	b := New([]*rvc.CodeSet{frag(0, rvc.RegSet(0).With(10))})
	require.Zero(t, b.LiveOut(0), "last instruction's live-out must be empty")
}

func TestDeadWriteNeverReadAgain(t *testing.T) {
	// x10 = 1; x11 = 2; return x11  -- x10's write at index 0 is dead.
	cs := []*rvc.CodeSet{
		frag(0, rvc.RegSet(0).With(10)),
		frag(0, rvc.RegSet(0).With(11)),
		frag(rvc.RegSet(0).With(11), 0),
	}
	b := New(cs)
	require.True(t, b.IsDead(0, 10), "x10's write at index 0 should be dead (never read)")
	require.False(t, b.IsDead(1, 11), "x11's write at index 1 should be live (read at index 2)")
}

func TestLiveThroughIntermediateWrite(t *testing.T) {
	// x10 = 5; x11 = x10 + 1; x10 = x10 + x11
	cs := []*rvc.CodeSet{
		frag(0, rvc.RegSet(0).With(10)),
		frag(rvc.RegSet(0).With(10), rvc.RegSet(0).With(11)),
		frag(rvc.RegSet(0).With(10).With(11), rvc.RegSet(0).With(10)),
	}
	b := New(cs)
	require.False(t, b.IsDead(0, 10), "x10 written at index 0 is read at index 1, must be live")
	require.True(t, b.IsDead(2, 10), "x10's final write at index 2 is never read again, must be dead")
}
