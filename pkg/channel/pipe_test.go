package channel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeDeliversToPeerSynchronously(t *testing.T) {
	a, b := Pipe()
	var got []byte
	b.SetReceiver(func(payload []byte) { got = payload })

	require.NoError(t, a.Post([]byte("hello")))
	require.Equal(t, []byte("hello"), got)
}

func TestPipeDeliversACopyOfThePayload(t *testing.T) {
	a, b := Pipe()
	var got []byte
	b.SetReceiver(func(payload []byte) { got = payload })

	buf := []byte("frame")
	require.NoError(t, a.Post(buf))
	buf[0] = 'X'
	require.Equal(t, []byte("frame"), got)
}

func TestPipeReceiverMayPostBack(t *testing.T) {
	a, b := Pipe()
	var reply []byte
	a.SetReceiver(func(payload []byte) { reply = payload })
	b.SetReceiver(func(payload []byte) {
		require.NoError(t, b.Post(append([]byte("echo: "), payload...)))
	})

	require.NoError(t, a.Post([]byte("ping")))
	require.Equal(t, []byte("echo: ping"), reply)
}

func TestPipeDropsFramesWithNoReceiver(t *testing.T) {
	a, _ := Pipe()
	require.NoError(t, a.Post([]byte("into the void")))
}

func TestPipeCloseClosesBothEnds(t *testing.T) {
	a, b := Pipe()
	require.NoError(t, a.Close())

	require.ErrorIs(t, a.Post([]byte("x")), ErrChannelClosed)
	require.ErrorIs(t, b.Post([]byte("x")), ErrChannelClosed)

	// Closing again is a no-op.
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}
