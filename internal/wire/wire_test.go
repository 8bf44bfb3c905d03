package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	bodies := [][]byte{
		{},
		[]byte("CAR A 1 10"),
		[]byte("STATUS Open 1 1"),
		bytes.Repeat([]byte("x"), MaxMessageLen),
	}

	for _, body := range bodies {
		var buf bytes.Buffer
		require.NoError(t, WriteMessage(&buf, body))

		got, err := ReadMessage(&buf)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	}
}

func TestWriteMessageRejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, bytes.Repeat([]byte("x"), MaxMessageLen+1))
	require.Error(t, err)
	assert.Equal(t, 0, buf.Len())
}

func TestReadMessagePropagatesShortReadAsError(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 5})
	buf.WriteString("ab")

	_, err := ReadMessage(&buf)
	require.Error(t, err)
}

func TestWriteStringReadStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "INDIVIDUAL SERVICE"))

	got, err := ReadString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "INDIVIDUAL SERVICE", got)
}

func TestFprintfFormatsAndFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Fprintf(&buf, "CALL %s %s", "1", "5"))

	got, err := ReadString(&buf)
	require.NoError(t, err)
	assert.Equal(t, "CALL 1 5", got)
}

func TestSequentialMessagesOnSharedStream(t *testing.T) {
	var buf bytes.Buffer
	messages := []string{"CAR A 1 10", "STATUS Open 1 1", "EMERGENCY"}
	for _, m := range messages {
		require.NoError(t, WriteString(&buf, m))
	}

	r := strings.NewReader(buf.String())
	for _, want := range messages {
		got, err := ReadString(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
