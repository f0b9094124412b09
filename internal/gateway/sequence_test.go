package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerStaleOrdering(t *testing.T) {
	var s Sequencer

	ctx1, seq1 := s.Begin(context.Background())
	_, seq2 := s.Begin(context.Background())

	assert.True(t, s.Stale(seq1), "superseded sequence must be stale")
	assert.False(t, s.Stale(seq2), "latest sequence must not be stale")

	select {
	case <-ctx1.Done():
	default:
		t.Fatal("beginning a new request must cancel the previous context")
	}
}

func TestSequencerMonotonic(t *testing.T) {
	var s Sequencer
	_, a := s.Begin(context.Background())
	_, b := s.Begin(context.Background())
	_, c := s.Begin(context.Background())
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}
