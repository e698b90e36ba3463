package speech

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesSkipsBlankLines(t *testing.T) {
	src := Lines(context.Background(), strings.NewReader("count 2 cans\n\n   \nlock out glass\r\n4\n"))

	var got []string
	for line := range src {
		got = append(got, line)
	}
	assert.Equal(t, []string{"count 2 cans", "lock out glass", "4"}, got)
}

func TestLinesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := Lines(ctx, strings.NewReader("one\ntwo\nthree\n"))

	assert.Equal(t, "one", <-src)
	cancel()
	for range src {
	}
}
