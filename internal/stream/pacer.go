// Package stream delivers finished reply text to a client as a paced
// sequence of word chunks.
package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// Terminator is written after the last token.
const Terminator = "\n"

// Sink receives chunks in order.
type Sink interface {
	WriteChunk(chunk string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(chunk string) error

func (f SinkFunc) WriteChunk(chunk string) error { return f(chunk) }

// Tokens splits text on single spaces. The first token is bare and every other
// token carries one leading space, so the tokens concatenate back to text.
func Tokens(text string) []string {
	words := strings.Split(text, " ")
	tokens := make([]string, len(words))
	for i, w := range words {
		if i == 0 {
			tokens[i] = w
		} else {
			tokens[i] = " " + w
		}
	}
	return tokens
}

type Pacer struct {
	Delay time.Duration
}

// Stream writes each token, waiting Delay after each one, then the
// terminator. It stops at the first write error or when ctx is done.
func (p *Pacer) Stream(ctx context.Context, text string, sink Sink) error {
	for _, tok := range Tokens(text) {
		if tok != "" {
			if err := sink.WriteChunk(tok); err != nil {
				return err
			}
		}
		if err := p.wait(ctx); err != nil {
			return err
		}
	}
	return sink.WriteChunk(Terminator)
}

func (p *Pacer) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HTTPSink writes chunks to a response and flushes after each one.
type HTTPSink struct {
	w  io.Writer
	rc *http.ResponseController
}

func NewHTTPSink(w http.ResponseWriter) *HTTPSink {
	return &HTTPSink{w: w, rc: http.NewResponseController(w)}
}

func (s *HTTPSink) WriteChunk(chunk string) error {
	if _, err := io.WriteString(s.w, chunk); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
