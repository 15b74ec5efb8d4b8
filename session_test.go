package hwcodec

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	b := newFake("libx264")
	b.lookahead = 3

	s, err := OpenEncoder(b, testEncodeContext())
	require.NoError(t, err)
	assert.Equal(t, StateOpen, s.State())
	assert.NotEmpty(t, s.ID().String())
	assert.Equal(t, "libx264", s.Backend())

	var packets []*Packet
	for i := 0; i < 10; i++ {
		out, err := s.Feed(testFrame(int64(i)))
		require.NoError(t, err)
		packets = append(packets, out...)
	}
	assert.Equal(t, StateRunning, s.State())
	assert.Len(t, packets, 7)

	rest, err := s.Drain()
	require.NoError(t, err)
	packets = append(packets, rest...)
	require.Len(t, packets, 10)
	for i, p := range packets {
		assert.Equal(t, int64(i), p.PTS, "outputs keep backend order")
	}
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, SessionStats{Inputs: 10, Outputs: 10}, s.Stats())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), b.closes.Load())
	assert.Nil(t, s.Handle())

	_, err = s.Feed(testFrame(11))
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Drain()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSessionTransientFailure(t *testing.T) {
	b := newFake("libx264")
	b.feedErr = transientAt(2)

	s, err := OpenEncoder(b, testEncodeContext())
	require.NoError(t, err)

	_, err = s.Feed(testFrame(0))
	require.NoError(t, err)
	_, err = s.Feed(testFrame(1))
	require.ErrorIs(t, err, ErrTransientFeed)
	assert.False(t, errors.Is(err, ErrSessionTerminated))
	assert.Equal(t, StateRunning, s.State())

	out, err := s.Feed(testFrame(2))
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, uint64(1), s.Stats().TransientFailures)

	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), b.closes.Load())
}

func TestSessionFatalFailure(t *testing.T) {
	b := newFake("h264_nvenc")
	b.feedErr = fatalAt(2)

	s, err := OpenEncoder(b, testEncodeContext())
	require.NoError(t, err)

	_, err = s.Feed(testFrame(0))
	require.NoError(t, err)
	_, err = s.Feed(testFrame(1))
	require.ErrorIs(t, err, ErrSessionTerminated)
	assert.True(t, IsFatal(err))
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, int32(1), b.closes.Load())

	_, err = s.Feed(testFrame(2))
	assert.ErrorIs(t, err, ErrSessionTerminated)
	_, err = s.Drain()
	assert.ErrorIs(t, err, ErrSessionTerminated)
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), b.closes.Load())
}

func TestSessionDrainFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"transient", errors.New("eof error"), ErrTransientFeed},
		{"fatal", &BackendError{Backend: "fake", Op: "flush", Err: errors.New("lost"), Fatal: true}, ErrSessionTerminated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFake("libx264")
			b.flushErr = tt.err
			s, err := OpenEncoder(b, testEncodeContext())
			require.NoError(t, err)

			_, err = s.Drain()
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StateClosed, s.State())
			assert.Equal(t, int32(1), b.closes.Load(), "handle released even when flush fails")
		})
	}
}

func TestSessionCloseDiscardsBuffered(t *testing.T) {
	b := newFake("libx264")
	b.lookahead = 5
	s, err := OpenEncoder(b, testEncodeContext())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		out, err := s.Feed(testFrame(int64(i)))
		require.NoError(t, err)
		assert.Empty(t, out)
	}
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), b.closes.Load())
	_, err = s.Feed(testFrame(3))
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestOpenEncoderErrors(t *testing.T) {
	b := newFake("libx264")
	_, err := OpenEncoder(b, EncodeContext{Width: 0, Height: 10, PixelFormat: PixelFormatI420})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, b.opened.Load())

	b.openErr = errors.New("no device")
	_, err = OpenEncoder(b, testEncodeContext())
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = OpenDecoder(b, DecodeContext{})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestSessionSetBitrate(t *testing.T) {
	plain := newFake("libx264")
	s, err := OpenEncoder(plain, testEncodeContext())
	require.NoError(t, err)
	assert.ErrorIs(t, SetBitrate(s, 1000), ErrNotSupported)
	require.NoError(t, s.Close())

	dyn := newFake("h264_nvenc")
	dyn.bitrate = true
	s, err = OpenEncoder(dyn, testEncodeContext())
	require.NoError(t, err)
	require.NoError(t, SetBitrate(s, 1500))
	assert.Equal(t, 1500, s.Handle().(*bitrateHandle).kbps)
	assert.ErrorIs(t, SetBitrate(s, 0), ErrTransientFeed)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, SetBitrate(s, 1000), ErrSessionClosed)
}

func TestSessionSerializesFeeds(t *testing.T) {
	b := newFake("libx264")
	s, err := OpenEncoder(b, testEncodeContext())
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := s.Feed(testFrame(int64(i)))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(400), s.Stats().Inputs)
	assert.Zero(t, b.reentry.Load())
}

func TestDecodeSession(t *testing.T) {
	b := newFake("h264")
	s, err := OpenDecoder(b, DecodeContext{})
	require.NoError(t, err)

	frames, err := s.Feed(&Packet{Data: []byte{1}, PTS: 7})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, int64(7), frames[0].PTS)

	rest, err := s.Drain()
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, int32(1), b.closes.Load())
}

func TestNewSessionWrapsHandle(t *testing.T) {
	b := newFake("rawvideo")
	h, err := b.OpenEncoder(testEncodeContext())
	require.NoError(t, err)
	s := NewSession[*Frame, *Packet]("rawvideo", h)
	_, err = s.Feed(testFrame(0))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), b.closes.Load())
}
