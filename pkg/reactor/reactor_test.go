package reactor

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// startLoop runs a loop for the duration of the test.
func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop()
	go l.Run(context.Background())
	t.Cleanup(func() {
		l.Stop()
		<-l.Done()
	})
	return l
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out")
	}
	var zero T
	return zero
}

func TestLoopPostAndDo(t *testing.T) {
	l := startLoop(t)

	ran := make(chan struct{})
	require.True(t, l.Post(func() { close(ran) }))
	waitFor(t, ran)

	value := 0
	require.True(t, l.Do(func() { value = 42 }))
	assert.Equal(t, 42, value)

	assert.ErrorIs(t, l.Run(context.Background()), ErrLoopRunning)

	l.Stop()
	<-l.Done()
	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Do(func() {}))
}

func TestLoopRunStopsOnContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	cancel()
	assert.ErrorIs(t, waitFor(t, errCh), context.Canceled)
	assert.False(t, l.Post(func() {}))
}

func TestListenAcceptReadWrite(t *testing.T) {
	l := startLoop(t)

	streams := make(chan Stream, 1)
	reads := make(chan []byte, 16)
	readErr := make(chan error, 1)

	var ln Listener
	require.True(t, l.Do(func() {
		var err error
		ln, err = l.Listen("tcp", "127.0.0.1:0", 8, func(err error) {
			require.NoError(t, err)
			s, err := ln.Accept()
			require.NoError(t, err)
			scratch := make([]byte, 16)
			require.NoError(t, s.ReadStart(
				func(int) []byte { return scratch },
				func(data []byte, err error) {
					if err != nil {
						readErr <- err
						return
					}
					reads <- append([]byte(nil), data...)
				},
			))
			streams <- s
		})
		require.NoError(t, err)
	}))

	peer, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer peer.Close()

	s := waitFor(t, streams)
	assert.Equal(t, "tcp", s.Network())
	assert.Equal(t, peer.LocalAddr().String(), s.RemoteAddr())
	require.True(t, l.Do(func() {
		assert.NoError(t, s.SetKeepAlive(true, 30*time.Second))
		assert.NoError(t, s.SetNoDelay(true))
	}))

	_, err = peer.Write([]byte("hello"))
	require.NoError(t, err)

	var got []byte
	for len(got) < 5 {
		got = append(got, waitFor(t, reads)...)
	}
	assert.Equal(t, "hello", string(got))

	written := make(chan error, 1)
	require.True(t, l.Do(func() {
		require.NoError(t, s.Write([]byte("world"), func(err error) { written <- err }))
	}))
	assert.NoError(t, waitFor(t, written))

	reply := make([]byte, 5)
	_, err = io.ReadFull(peer, reply)
	require.NoError(t, err)
	assert.Equal(t, "world", string(reply))

	peer.Close()
	assert.ErrorIs(t, waitFor(t, readErr), io.EOF)

	closed := make(chan struct{})
	require.True(t, l.Do(func() {
		s.Close(func() { close(closed) })
		ln.Close(nil)
	}))
	waitFor(t, closed)
}

func TestStreamCloseCompletesWritesBeforeClose(t *testing.T) {
	l := startLoop(t)

	local, remote := net.Pipe()
	defer remote.Close()

	// Nobody reads from remote, so no write can finish on its own.
	var order []string
	var s *stream
	closed := make(chan struct{})
	closeCalls := 0

	require.True(t, l.Do(func() {
		s = newStream(l, local)
		for i := 0; i < 3; i++ {
			require.NoError(t, s.Write([]byte("x"), func(err error) {
				assert.Error(t, err)
				order = append(order, "write")
			}))
		}
		assert.Equal(t, 3, s.WriteQueueSize())

		s.Close(func() {
			closeCalls++
			order = append(order, "close")
			close(closed)
		})
		s.Close(func() { closeCalls++ })

		assert.ErrorIs(t, s.Write([]byte("late"), nil), ErrClosed)
	}))

	waitFor(t, closed)
	require.True(t, l.Do(func() {
		assert.Equal(t, []string{"write", "write", "write", "close"}, order)
		assert.Equal(t, 1, closeCalls)
		assert.Equal(t, 0, s.WriteQueueSize())
	}))
}

func TestStreamWithStubConn(t *testing.T) {
	l := startLoop(t)

	var closes atomic.Int32
	conn := &netstub.FuncConn{
		CloseFunc: func() error {
			closes.Add(1)
			return nil
		},
		LocalAddrFunc: func() net.Addr {
			return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4000}
		},
		RemoteAddrFunc: func() net.Addr {
			return &net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 5000}
		},
	}

	closed := make(chan struct{})
	require.True(t, l.Do(func() {
		s := newStream(l, conn)
		assert.Equal(t, "10.0.0.1:4000", s.LocalAddr())
		assert.Equal(t, "10.0.0.2:5000", s.RemoteAddr())
		assert.Equal(t, "tcp", s.Network())

		// A stub is not a *net.TCPConn.
		assert.ErrorIs(t, s.SetKeepAlive(true, time.Second), ErrNotTCP)
		assert.ErrorIs(t, s.SetNoDelay(true), ErrNotTCP)

		s.Close(func() { close(closed) })
		s.Close(nil)
		assert.ErrorIs(t, s.ReadStart(nil, nil), ErrClosed)
	}))

	waitFor(t, closed)
	assert.Equal(t, int32(1), closes.Load())
}

func TestReadStartTwice(t *testing.T) {
	l := startLoop(t)
	local, remote := net.Pipe()
	defer remote.Close()

	closed := make(chan struct{})
	require.True(t, l.Do(func() {
		s := newStream(l, local)
		alloc := func(int) []byte { return make([]byte, 8) }
		onRead := func([]byte, error) {}
		require.NoError(t, s.ReadStart(alloc, onRead))
		assert.ErrorIs(t, s.ReadStart(alloc, onRead), ErrAlreadyReading)
		s.Close(func() { close(closed) })
	}))
	waitFor(t, closed)
}

func TestUnixListenAndDial(t *testing.T) {
	l := startLoop(t)
	path := filepath.Join(t.TempDir(), "r.sock")

	accepted := make(chan Stream, 1)
	dialed := make(chan Stream, 1)

	var ln Listener
	require.True(t, l.Do(func() {
		var err error
		ln, err = l.Listen("unix", path, 4, func(err error) {
			require.NoError(t, err)
			s, err := ln.Accept()
			require.NoError(t, err)
			accepted <- s
		})
		require.NoError(t, err)

		l.Dial("unix", path, func(s Stream, err error) {
			require.NoError(t, err)
			dialed <- s
		})
	}))

	a := waitFor(t, accepted)
	d := waitFor(t, dialed)
	assert.Equal(t, "unix", a.Network())
	assert.Equal(t, "unix", d.Network())

	var noPending error
	require.True(t, l.Do(func() {
		_, noPending = ln.Accept()
	}))
	assert.ErrorIs(t, noPending, ErrNoPending)

	done := make(chan struct{}, 3)
	require.True(t, l.Do(func() {
		a.Close(func() { done <- struct{}{} })
		d.Close(func() { done <- struct{}{} })
		ln.Close(func() { done <- struct{}{} })
	}))
	for i := 0; i < 3; i++ {
		waitFor(t, done)
	}
}

func TestListenerCloseOnce(t *testing.T) {
	l := startLoop(t)

	calls := 0
	closed := make(chan struct{})
	var ln Listener
	require.True(t, l.Do(func() {
		var err error
		ln, err = l.Listen("tcp", "127.0.0.1:0", 1, func(error) {})
		require.NoError(t, err)
		ln.Close(func() {
			calls++
			close(closed)
		})
		ln.Close(func() { calls++ })

		_, err = ln.Accept()
		assert.ErrorIs(t, err, ErrClosed)
	}))

	waitFor(t, closed)
	require.True(t, l.Do(func() {
		assert.Equal(t, 1, calls)
	}))
}

func TestDialFailures(t *testing.T) {
	l := startLoop(t)

	missing := filepath.Join(t.TempDir(), "missing.sock")
	results := make(chan error, 2)
	require.True(t, l.Do(func() {
		l.Dial("udp", "127.0.0.1:1", func(s Stream, err error) {
			assert.Nil(t, s)
			results <- err
		})
		l.Dial("unix", missing, func(s Stream, err error) {
			assert.Nil(t, s)
			results <- err
		})
	}))

	errs := []error{waitFor(t, results), waitFor(t, results)}
	unsupported := 0
	for _, err := range errs {
		require.Error(t, err)
		if errors.Is(err, ErrUnsupportedNetwork) {
			unsupported++
		}
	}
	assert.Equal(t, 1, unsupported)
}

func TestDialUnsupportedWithFullQueue(t *testing.T) {
	l := NewLoop(WithQueueSize(1))
	go l.Run(context.Background())
	t.Cleanup(func() {
		l.Stop()
		<-l.Done()
	})

	results := make(chan error, 1)
	returned := make(chan bool, 1)
	go func() {
		returned <- l.Do(func() {
			assert.True(t, l.Post(func() {}))
			l.Dial("udp", "127.0.0.1:1", func(_ Stream, err error) {
				results <- err
			})
		})
	}()

	assert.True(t, waitFor(t, returned), "Dial must not block the loop")
	assert.ErrorIs(t, waitFor(t, results), ErrUnsupportedNetwork)
}

func TestListenUnsupportedNetwork(t *testing.T) {
	l := NewLoop()
	_, err := l.Listen("udp", "127.0.0.1:0", 1, func(error) {})
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}
