package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// maxLineSize bounds one stdio message (1 MiB).
const maxLineSize = 1024 * 1024

type StdioTransportOpts struct {
	// Engine dispatches the messages. Required.
	Engine *Engine

	// In and Out default to the process stdin/stdout at Serve time.
	In  io.Reader
	Out io.Writer

	// Logger is the *zap.Logger for this transport.
	// A nil Logger will disable logging.
	Logger *zap.Logger
}

// StdioTransport speaks one JSON value per line over a byte stream and
// holds exactly one session for the life of the process. The session
// has no network peer, so caller-IP dependent tools fail in-band.
type StdioTransport struct {
	opts StdioTransportOpts

	sess *Session

	writeMu sync.Mutex
}

func NewStdioTransport(opts StdioTransportOpts) (*StdioTransport, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("nil engine")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger
	}
	return &StdioTransport{
		opts: opts,
		sess: NewSession(),
	}, nil
}

// Session exposes the transport's single session, mainly for tests.
func (t *StdioTransport) Session() *Session {
	return t.sess
}

// Serve reads lines until EOF or ctx is cancelled. A malformed line
// yields a parse error response and the loop continues.
func (t *StdioTransport) Serve(ctx context.Context) error {
	defer t.sess.Close()

	scanner := bufio.NewScanner(t.opts.In)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		out, ok := t.opts.Engine.HandleRaw(ctx, t.sess, line)
		if !ok {
			continue
		}
		if err := t.writeLine(out); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	t.opts.Logger.Info("stdio transport closed on EOF")
	return nil
}

// Notify pushes a server-initiated notification to the peer.
func (t *StdioTransport) Notify(method string, params any) error {
	return t.writeLine(mustMarshal(NewNotification(method, params)))
}

func (t *StdioTransport) writeLine(b []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.opts.Out.Write(b); err != nil {
		return err
	}
	_, err := t.opts.Out.Write([]byte{'\n'})
	return err
}
