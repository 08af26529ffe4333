// Package transport carries text frames to and from a relay over a
// websocket. It does not reconnect.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

const DefaultReadLimit int64 = 1 << 20

// ErrBinaryFrame is returned by Receive when the peer sends a binary frame.
var ErrBinaryFrame = errors.New("transport: binary frame rejected")

type Options struct {
	// ReadLimit caps a single inbound frame. Zero means DefaultReadLimit.
	ReadLimit  int64
	HTTPHeader http.Header
	HTTPClient *http.Client
}

type Conn struct {
	ws  *websocket.Conn
	url string
}

// Dial opens a websocket to url.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: opts.HTTPHeader,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return newConn(ws, url, opts.ReadLimit), nil
}

// Accept upgrades an HTTP request into a Conn. Used by relay fixtures.
func Accept(w http.ResponseWriter, r *http.Request, readLimit int64) (*Conn, error) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newConn(ws, r.Host, readLimit), nil
}

func newConn(ws *websocket.Conn, url string, readLimit int64) *Conn {
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	ws.SetReadLimit(readLimit)
	return &Conn{ws: ws, url: url}
}

func (c *Conn) URL() string { return c.url }

// Send writes one text frame.
func (c *Conn) Send(ctx context.Context, text []byte) error {
	if err := c.ws.Write(ctx, websocket.MessageText, text); err != nil {
		return fmt.Errorf("send to %s: %w", c.url, err)
	}
	return nil
}

// Receive blocks for the next text frame.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	typ, data, err := c.ws.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", c.url, err)
	}
	if typ != websocket.MessageText {
		return nil, ErrBinaryFrame
	}
	return data, nil
}

// Close performs a normal websocket close.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// IsClosed reports whether err reflects a clean close by either side.
func IsClosed(err error) bool {
	return websocket.CloseStatus(err) == websocket.StatusNormalClosure
}
