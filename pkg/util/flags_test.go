package util

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() (*flag.FlagSet, *int, *bool) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	days := fs.Int("days", 90, "")
	debug := fs.Bool("debug", false, "")
	return fs, days, debug
}

func TestParseInterleaved(t *testing.T) {
	fs, days, debug := newFlagSet()
	pos, err := ParseInterleaved(fs, []string{"AAPL", "--days", "5", "msft", "--debug"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "msft"}, pos)
	assert.Equal(t, 5, *days)
	assert.True(t, *debug)
}

func TestParseInterleavedTerminator(t *testing.T) {
	fs, days, _ := newFlagSet()
	pos, err := ParseInterleaved(fs, []string{"--days", "7", "--", "--debug", "X"})
	require.NoError(t, err)
	assert.Equal(t, []string{"--debug", "X"}, pos)
	assert.Equal(t, 7, *days)
}

func TestParseInterleavedUnknownFlag(t *testing.T) {
	fs, _, _ := newFlagSet()
	_, err := ParseInterleaved(fs, []string{"AAPL", "--nope"})
	assert.Error(t, err)
}
