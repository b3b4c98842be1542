package ipc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.klb.dev/shotcast/internal/crypto"
	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
	"go.klb.dev/shotcast/internal/message"
	"go.klb.dev/shotcast/internal/wire"
)

// Client talks to a running daemon. It implements History.
type Client struct {
	dial  func() (net.Conn, error)
	token string

	mu sync.Mutex
	wc *wire.Conn
}

var _ History = (*Client)(nil)

// NewClient connects to the daemon's socket.
func NewClient(key *crypto.Key) (*Client, error) {
	return newClient(Dial, key)
}

func newClient(dial func() (net.Conn, error), key *crypto.Key) (*Client, error) {
	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("dial ipc: %w", err)
	}
	c := &Client{dial: dial, wc: wire.New(conn, key)}
	if key != nil {
		c.token = crypto.Token(key, crypto.PurposeHTTP)
	}
	return c, nil
}

func (c *Client) roundTrip(ctx context.Context, req *message.Message) (*message.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		c.wc.SetReadDeadline(time.Until(dl))
		defer c.wc.SetReadDeadline(0)
	}
	if err := c.wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("ipc send: %w", err)
	}
	resp, err := c.wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("ipc receive: %w", err)
	}
	if resp.Type == message.TypeError {
		return nil, &errors.ShotError{Code: errors.ErrorCode(resp.ErrorCode), Message: resp.Error}
	}
	return resp, nil
}

func expect(resp *message.Message, t message.Type) error {
	if resp.Type != t {
		return errors.NewInternal(fmt.Errorf("unexpected ipc response %s, want %s", resp.Type, t))
	}
	return nil
}

// Status asks the daemon for its state.
func (c *Client) Status(ctx context.Context) (*message.Status, error) {
	resp, err := c.roundTrip(ctx, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, message.TypeStatusResponse); err != nil {
		return nil, err
	}
	return resp.Status, nil
}

// List implements History.
func (c *Client) List(ctx context.Context, q message.Query) ([]item.Summary, error) {
	resp, err := c.roundTrip(ctx, &message.Message{Type: message.TypeList, Query: &q})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, message.TypeItems); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Show implements History.
func (c *Client) Show(ctx context.Context, id string) (*message.Detail, error) {
	resp, err := c.roundTrip(ctx, &message.Message{Type: message.TypeShow, ID: id})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, message.TypeDetail); err != nil {
		return nil, err
	}
	return resp.Detail, nil
}

// Forget implements History.
func (c *Client) Forget(ctx context.Context, id string) error {
	resp, err := c.roundTrip(ctx, &message.Message{Type: message.TypeForget, ID: id})
	if err != nil {
		return err
	}
	return expect(resp, message.TypeOK)
}

// Favorite implements History.
func (c *Client) Favorite(ctx context.Context, id string, on bool) error {
	resp, err := c.roundTrip(ctx, &message.Message{Type: message.TypeFavorite, ID: id, Favorite: on})
	if err != nil {
		return err
	}
	return expect(resp, message.TypeOK)
}

// Tag implements History.
func (c *Client) Tag(ctx context.Context, id, name, color string) (*item.Tag, error) {
	resp, err := c.roundTrip(ctx, &message.Message{Type: message.TypeTag, ID: id, Tag: name, Color: color})
	if err != nil {
		return nil, err
	}
	if err := expect(resp, message.TypeTagged); err != nil {
		return nil, err
	}
	return resp.TagInfo, nil
}

// Thumbnail fetches a rendered preview over the socket's HTTP side. It
// returns nil when the item has no thumbnail yet.
func (c *Client) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	hc := &http.Client{
		Transport: &http.Transport{
			DialContext: func(context.Context, string, string) (net.Conn, error) { return c.dial() },
		},
	}
	defer hc.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"http://shotcast/v1/items/"+url.PathEscape(id)+"/thumbnail", nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipc http: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("ipc http: %s", resp.Status)
	}
}

// Close implements History.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wc.Close()
}
