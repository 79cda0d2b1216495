package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	tb, err := parse(strings.NewReader("a,1\nb,2\nc,1\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, 3, tb.NumRows)
	assert.Equal(t, 2, tb.NumAttrs)
	assert.Equal(t, []string{"a", "b", "c"}, tb.Column(0))
	assert.Equal(t, []string{"1", "2", "1"}, tb.Column(1))
}

func TestParse_RaggedRow(t *testing.T) {
	_, err := parse(strings.NewReader("a,1\nb,2,3\n"), ',')
	require.ErrorIs(t, err, ErrRaggedRow)
}

func TestParse_Empty(t *testing.T) {
	_, err := parse(strings.NewReader(""), ',')
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestParse_CustomSeparator(t *testing.T) {
	tb, err := parse(strings.NewReader("a;1\nb;2\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tb.Column(0))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/does-not-exist.csv", ',')
	require.Error(t, err)
}
