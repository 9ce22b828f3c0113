package extract

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLimited(t *testing.T) {
	exact := bytes.Repeat([]byte("a"), MaxBytes)
	data, err := ReadLimited(bytes.NewReader(exact), MaxBytes)
	require.NoError(t, err)
	assert.Len(t, data, MaxBytes)

	over := append(exact, 'b')
	_, err = ReadLimited(bytes.NewReader(over), MaxBytes)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestTextUTF8(t *testing.T) {
	text, err := Text([]byte("héllo wörld"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", text)
}

func TestTextInvalidUTF8(t *testing.T) {
	_, err := Text([]byte{0xff, 0xfe, 0x00}, "application/octet-stream")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestTextBrokenPDF(t *testing.T) {
	_, err := Text([]byte("not really a pdf"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("application/pdf"))
	assert.True(t, IsPDF("Application/PDF; name=x.pdf"))
	assert.False(t, IsPDF("text/plain"))
	assert.False(t, IsPDF(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "日本", Truncate("日本語", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))

	long := strings.Repeat("é", 3500)
	out := Truncate(long, 3000)
	assert.Equal(t, 3000, len([]rune(out)))
}
