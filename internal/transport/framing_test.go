package transport

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	require.NoError(t, fw.WriteFrame([]byte(`{"a":1}`)))
	require.NoError(t, fw.WriteFrame([]byte(``)))
	require.NoError(t, fw.WriteFrame([]byte(`{"b":2}`)))

	fr := NewFrameReader()
	frames, err := fr.Feed(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, `{"a":1}`, string(frames[0]))
	assert.Empty(t, frames[1])
	assert.Equal(t, `{"b":2}`, string(frames[2]))
	assert.Equal(t, 0, fr.Pending())
}

// TestFrameReaderSurvivesArbitrarySplits TCP 不保证消息边界，逐字节喂也要能重组
func TestFrameReaderSurvivesArbitrarySplits(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	require.NoError(t, fw.WriteJSON(map[string]int{"round": 7}))
	require.NoError(t, fw.WriteJSON(map[string]int{"round": 8}))

	fr := NewFrameReader()
	var got [][]byte
	for _, b := range buf.Bytes() {
		frames, err := fr.Feed([]byte{b})
		require.NoError(t, err)
		got = append(got, frames...)
	}
	require.Len(t, got, 2)

	var m map[string]int
	require.NoError(t, json.Unmarshal(got[1], &m))
	assert.Equal(t, 8, m["round"])
}

func TestFrameLittleEndianPrefix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFrameWriter(&buf).WriteFrame([]byte("abc")))

	raw := buf.Bytes()
	require.Len(t, raw, 7)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(raw[:4]))
	assert.Equal(t, []byte{3, 0, 0, 0}, raw[:4])
}

func TestFrameSizeLimit(t *testing.T) {
	fr := NewFrameReader()
	prefix := make([]byte, 4)
	binary.LittleEndian.PutUint32(prefix, MaxFrameSize+1)
	_, err := fr.Feed(prefix)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	fw := NewFrameWriter(&bytes.Buffer{})
	assert.ErrorIs(t, fw.WriteFrame(make([]byte, MaxFrameSize+1)), ErrFrameTooLarge)
}

func TestRelayBroadcast(t *testing.T) {
	relay, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Serve(ctx)

	conn, err := net.Dial("tcp", relay.Addr())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return relay.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	relay.Broadcast(map[string]string{"table": "t1"})

	fr := NewFrameReader()
	buf := make([]byte, 256)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		frames, err := fr.Feed(buf[:n])
		require.NoError(t, err)
		if len(frames) > 0 {
			var m map[string]string
			require.NoError(t, json.Unmarshal(frames[0], &m))
			assert.Equal(t, "t1", m["table"])
			return
		}
	}
}
