package ipc

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/soheilhy/cmux"

	"go.klb.dev/shotcast/internal/crypto"
	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
	"go.klb.dev/shotcast/internal/message"
	"go.klb.dev/shotcast/internal/wire"
)

// Previews gives the HTTP side raw access to payloads and thumbnails.
type Previews interface {
	Get(ctx context.Context, id string) (*item.CapturedItem, error)
	Thumbnail(ctx context.Context, id string) ([]byte, error)
}

// StatusFunc reports the daemon's current state.
type StatusFunc func(ctx context.Context) (*message.Status, error)

// Server answers CLI requests on the IPC socket.
type Server struct {
	history  History
	previews Previews
	status   StatusFunc
	key      *crypto.Key
	token    string // bearer token required on HTTP routes; empty when unsealed
	log      *slog.Logger

	conns sync.WaitGroup
}

// NewServer returns a Server. When key is non-nil it seals the JSON channel
// and every HTTP route requires a bearer token derived from it.
func NewServer(h History, p Previews, status StatusFunc, key *crypto.Key) *Server {
	s := &Server{
		history:  h,
		previews: p,
		status:   status,
		key:      key,
		log:      slog.Default().With("component", "ipc"),
	}
	if key != nil {
		s.token = crypto.Token(key, crypto.PurposeHTTP)
	}
	return s
}

// Serve multiplexes ln until ctx is done. It closes ln on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	m := cmux.New(ln)
	httpL := m.Match(cmux.HTTP1())
	jsonL := m.Match(cmux.Any())

	httpSrv := &http.Server{Handler: s.httpHandler()}
	go func() {
		if err := httpSrv.Serve(httpL); err != nil && !isClosed(err) {
			s.log.Debug("ipc http server stopped", "err", err)
		}
	}()
	go s.acceptJSON(ctx, jsonL)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Serve() }()

	select {
	case <-ctx.Done():
		_ = httpSrv.Close()
		_ = ln.Close()
		<-errCh
		s.conns.Wait()
		return nil
	case err := <-errCh:
		_ = httpSrv.Close()
		s.conns.Wait()
		if isClosed(err) {
			return nil
		}
		return err
	}
}

func isClosed(err error) bool {
	return stderrors.Is(err, net.ErrClosed) ||
		stderrors.Is(err, http.ErrServerClosed) ||
		stderrors.Is(err, cmux.ErrListenerClosed)
}

func (s *Server) acceptJSON(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	wc := wire.New(conn, s.key)
	for {
		req, err := wc.ReadMsg()
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				s.log.Debug("ipc read failed", "err", err)
			}
			return
		}
		resp := s.Dispatch(ctx, req)
		if err := wc.WriteMsg(resp); err != nil {
			s.log.Debug("ipc write failed", "err", err)
			return
		}
	}
}

// Dispatch answers one request.
func (s *Server) Dispatch(ctx context.Context, req *message.Message) *message.Message {
	resp, err := s.dispatch(ctx, req)
	if err != nil {
		s.log.Debug("ipc request failed", "type", req.Type, "id", req.ID, "err", err)
		return &message.Message{
			Type:      message.TypeError,
			Error:     err.Error(),
			ErrorCode: string(errors.CodeOf(err)),
		}
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *message.Message) (*message.Message, error) {
	switch req.Type {
	case message.TypeStatus:
		st, err := s.status(ctx)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeStatusResponse, Status: st}, nil

	case message.TypeList:
		var q message.Query
		if req.Query != nil {
			q = *req.Query
		}
		items, err := s.history.List(ctx, q)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeItems, Items: items}, nil

	case message.TypeShow:
		d, err := s.history.Show(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeDetail, Detail: d}, nil

	case message.TypeForget:
		if err := s.history.Forget(ctx, req.ID); err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeOK, ID: req.ID}, nil

	case message.TypeFavorite:
		if err := s.history.Favorite(ctx, req.ID, req.Favorite); err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeOK, ID: req.ID}, nil

	case message.TypeTag:
		tag, err := s.history.Tag(ctx, req.ID, req.Tag, req.Color)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeTagged, ID: req.ID, TagInfo: tag}, nil

	default:
		return nil, errors.NewInvalidRequest("unknown request type " + string(req.Type))
	}
}
