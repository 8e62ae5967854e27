package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	outboxSize   = 256
	writeTimeout = 3 * time.Second
)

// clientConn owns the write side of one socket. Send never blocks:
// when the outbox is full the payload is dropped, so one slow client
// cannot stall a lobby's tick fan-out.
type clientConn struct {
	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.SugaredLogger
}

func newClientConn(ctx context.Context, conn *websocket.Conn, log *zap.SugaredLogger) *clientConn {
	c := &clientConn{
		out:  make(chan []byte, outboxSize),
		done: make(chan struct{}),
		log:  log,
	}
	go c.writeLoop(ctx, conn)
	return c
}

func (c *clientConn) Send(payload []byte) {
	select {
	case c.out <- payload:
	case <-c.done:
	default:
		// Outbox full: drop this frame; the next snapshot supersedes it.
	}
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *clientConn) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case payload := <-c.out:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				c.log.Debugw("socket write failed", "err", err)
				c.close()
				return
			}
		}
	}
}
