package engine

import (
	"testing"

	"github.com/ptnet/ptnet-go/pkg/framing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateAccepting, "ACCEPTING"},
		{StateLive, "LIVE"},
		{StateClosing, "CLOSING"},
		{StateClosed, "CLOSED"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestEndpointScratchGrowsOnly(t *testing.T) {
	e := newEndpoint(framing.New(0), newFakeStream("x"))
	assert.Nil(t, e.alloc(16), "not live yet")

	e.state = StateLive
	a := e.alloc(16)
	require.Len(t, a, 16)

	b := e.alloc(8)
	require.Len(t, b, 8)
	assert.Same(t, &a[0], &b[0], "smaller request reuses the buffer")

	c := e.alloc(64)
	require.Len(t, c, 64)
	assert.Equal(t, 64, cap(e.scratch))

	d := e.alloc(16)
	assert.Same(t, &c[0], &d[0])
	assert.Equal(t, 64, cap(e.scratch), "never shrinks")

	e.release()
	assert.Equal(t, StateClosed, e.state)
	assert.Nil(t, e.alloc(16))
}

func TestEndpointIngestKeepsRemainder(t *testing.T) {
	e := newEndpoint(framing.New(0), newFakeStream("x"))
	e.state = StateLive

	var got []string
	deliver := func(_ uint32, p []byte) { got = append(got, string(p)) }

	wire := append(frame(t, []byte("one")), frame(t, []byte("two"))...)
	split := len(wire) - 2

	require.NoError(t, e.ingest(wire[:split], deliver))
	assert.Equal(t, []string{"one"}, got)
	assert.Equal(t, split-framing.FrameSize(3), e.inbound.Len())

	require.NoError(t, e.ingest(wire[split:], deliver))
	assert.Equal(t, []string{"one", "two"}, got)
	assert.Zero(t, e.inbound.Len())
}

func TestEndpointIngestStopsWhenClosed(t *testing.T) {
	e := newEndpoint(framing.New(0), newFakeStream("x"))
	e.state = StateLive

	calls := 0
	wire := append(frame(t, []byte("one")), frame(t, []byte("two"))...)
	err := e.ingest(wire, func(uint32, []byte) {
		calls++
		e.state = StateClosing
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
