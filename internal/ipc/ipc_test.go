//go:build !windows

package ipc

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/crypto"
	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
	"go.klb.dev/shotcast/internal/message"
	"go.klb.dev/shotcast/internal/store"
)

type fixture struct {
	st     *store.Store
	client *Client
	item   *item.CapturedItem
	dial   func() (net.Conn, error)
}

func startServer(t *testing.T, key *crypto.Key) *fixture {
	t.Helper()
	st, err := store.Open(t.TempDir(), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	it, err := item.New(item.Params{Category: item.Text, Content: []byte("hello from the clipboard")})
	require.NoError(t, err)
	require.NoError(t, st.Insert(context.Background(), it))

	sock, err := os.MkdirTemp("", "sc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(sock) })
	path := filepath.Join(sock, "s.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)

	status := func(ctx context.Context) (*message.Status, error) {
		n, err := st.Count(ctx)
		if err != nil {
			return nil, err
		}
		return &message.Status{Backend: "memory", Items: n}, nil
	}
	srv := NewServer(&Local{st: st}, st, status, key)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	dial := func() (net.Conn, error) { return net.Dial("unix", path) }
	client, err := newClient(dial, key)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return &fixture{st: st, client: client, item: it, dial: dial}
}

func TestClientServer(t *testing.T) {
	key, err := KeyFor("pw")
	require.NoError(t, err)

	for name, k := range map[string]*crypto.Key{"plain": nil, "sealed": key} {
		t.Run(name, func(t *testing.T) {
			f := startServer(t, k)
			ctx := context.Background()

			st, err := f.client.Status(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, st.Items)

			items, err := f.client.List(ctx, message.Query{Categories: []string{"text"}})
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, f.item.ID, items[0].ID)

			d, err := f.client.Show(ctx, f.item.ID)
			require.NoError(t, err)
			content, err := d.Decode()
			require.NoError(t, err)
			assert.Equal(t, "hello from the clipboard", string(content))

			require.NoError(t, f.client.Favorite(ctx, f.item.ID, true))
			favs, err := f.client.List(ctx, message.Query{Favorites: true})
			require.NoError(t, err)
			assert.Len(t, favs, 1)

			tag, err := f.client.Tag(ctx, f.item.ID, "inbox", "#0f0")
			require.NoError(t, err)
			assert.Equal(t, "#0F0", tag.ColorHex)
			again, err := f.client.Tag(ctx, f.item.ID, "Inbox", "")
			require.NoError(t, err)
			assert.Equal(t, tag.ID, again.ID)

			tagged, err := f.client.List(ctx, message.Query{Tag: "inbox"})
			require.NoError(t, err)
			require.Len(t, tagged, 1)
			assert.Equal(t, []string{"inbox"}, tagged[0].Tags)

			_, err = f.client.List(ctx, message.Query{Categories: []string{"bogus"}})
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

			_, err = f.client.Show(ctx, "missing")
			assert.True(t, errors.Is(err, errors.ErrNotFound))

			require.NoError(t, f.client.Forget(ctx, f.item.ID))
			items, err = f.client.List(ctx, message.Query{})
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestClientThumbnailOverHTTP(t *testing.T) {
	f := startServer(t, nil)
	ctx := context.Background()

	data, err := f.client.Thumbnail(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Nil(t, data)

	ok, err := f.st.SetThumbnail(ctx, f.item.ID, []byte{0xff, 0xd8, 0xff, 0xd9})
	require.NoError(t, err)
	require.True(t, ok)

	data, err = f.client.Thumbnail(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, data)

	// The JSON channel still works after HTTP traffic on the same socket.
	_, err = f.client.Status(ctx)
	require.NoError(t, err)
}

func TestHTTPRequiresTokenWhenSealed(t *testing.T) {
	key, err := KeyFor("pw")
	require.NoError(t, err)
	f := startServer(t, key)
	ctx := context.Background()

	hc := &http.Client{Transport: &http.Transport{
		DialContext: func(context.Context, string, string) (net.Conn, error) { return f.dial() },
	}}
	t.Cleanup(hc.CloseIdleConnections)
	get := func(path, auth string) int {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://shotcast"+path, nil)
		require.NoError(t, err)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := hc.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	content := "/v1/items/" + f.item.ID + "/content"
	assert.Equal(t, http.StatusUnauthorized, get(content, ""))
	assert.Equal(t, http.StatusUnauthorized, get(content, "Bearer nope"))
	assert.Equal(t, http.StatusUnauthorized, get("/v1/status", ""))
	assert.Equal(t, http.StatusOK, get(content, "Bearer "+crypto.Token(key, crypto.PurposeHTTP)))

	ok, err := f.st.SetThumbnail(ctx, f.item.ID, []byte{0xff, 0xd8, 0xff, 0xd9})
	require.NoError(t, err)
	require.True(t, ok)
	data, err := f.client.Thumbnail(ctx, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xd9}, data)
}

func TestHTTPOpenWhenUnsealed(t *testing.T) {
	f := startServer(t, nil)
	conn, err := f.dial()
	require.NoError(t, err)
	defer conn.Close()

	req, err := http.NewRequest(http.MethodGet, "http://shotcast/v1/status", nil)
	require.NoError(t, err)
	require.NoError(t, req.Write(conn))
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDispatch_UnknownType(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil)
	resp := srv.Dispatch(context.Background(), &message.Message{Type: "NOPE"})
	assert.Equal(t, message.TypeError, resp.Type)
	assert.Equal(t, string(errors.ErrInvalidRequest), resp.ErrorCode)
}

func TestKeyFor(t *testing.T) {
	k, err := KeyFor("")
	require.NoError(t, err)
	assert.Nil(t, k)

	a, _ := KeyFor("x")
	b, _ := KeyFor("x")
	assert.Equal(t, *a, *b)
}

func TestSocketPathOverride(t *testing.T) {
	t.Setenv("SHOTCAST_SOCKET", "/tmp/custom.sock")
	assert.Equal(t, "/tmp/custom.sock", SocketPath())
}
