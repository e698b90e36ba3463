// Package speech adapts transcript sources into the utterance channel the
// session listener consumes.
package speech

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Lines emits each non-blank line of r as one utterance, in order. The
// channel is closed at EOF, on a read error, or when ctx ends.
func Lines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
