package wire

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSimpleField(t *testing.T) {
	// Tag 1, wire type 2, lunghezza 5, "hello"
	blob := append([]byte{0x0a, 0x05}, []byte("hello")...)
	fields := Extract(blob)
	require.Len(t, fields, 1)
	assert.Equal(t, 1, fields[0].Tag)
	assert.Equal(t, 5, fields[0].Length)
	assert.Equal(t, "hello", string(fields[0].Data))
}

func TestExtractMultipleFields(t *testing.T) {
	blob := []byte{
		0x0a, 0x02, 'a', 'b', // tag 1
		0x08, 0x7f, // tag 1 wire type 0: saltato byte per byte
		0x2a, 0x03, 'x', 'y', 'z', // tag 5
	}
	fields := Extract(blob)
	require.Len(t, fields, 2)
	assert.Equal(t, "ab", string(fields[0].Data))
	assert.Equal(t, 5, fields[1].Tag)
	assert.Equal(t, "xyz", string(fields[1].Data))
}

func TestExtractMultiByteVarintLength(t *testing.T) {
	// Lunghezza 200 richiede un varint a due byte (0xc8 0x01)
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	blob := append([]byte{0x12, 0xc8, 0x01}, payload...)
	fields := Extract(blob)
	require.Len(t, fields, 1)
	assert.Equal(t, 2, fields[0].Tag)
	assert.Equal(t, 200, fields[0].Length)
}

func TestExtractTruncatedLength(t *testing.T) {
	// Lunghezza dichiarata oltre la fine del blob: il record viene scartato
	blob := []byte{0x0a, 0x50, 'h', 'i'}
	fields := Extract(blob)
	assert.Empty(t, fields)
}

func TestExtractEmptyAndNil(t *testing.T) {
	assert.Empty(t, Extract(nil))
	assert.Empty(t, Extract([]byte{}))
	assert.Empty(t, Extract([]byte{0x0a}))
}

func TestExtractRandomBytesTerminates(t *testing.T) {
	// Qualunque input deve terminare senza panic
	rng := rand.New(rand.NewSource(42))
	blob := make([]byte, 10000)
	rng.Read(blob)
	assert.NotPanics(t, func() {
		Extract(blob)
	})
}

func TestTagged(t *testing.T) {
	blob := []byte{
		0x0a, 0x01, 'a',
		0x2a, 0x01, 'b',
		0x0a, 0x01, 'c',
	}
	fields := Tagged(blob, 1)
	require.Len(t, fields, 2)
	assert.Equal(t, "a", string(fields[0].Data))
	assert.Equal(t, "c", string(fields[1].Data))
}
