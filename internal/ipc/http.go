package ipc

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"go.klb.dev/shotcast/internal/errors"
)

// httpHandler serves the preview routes:
//
//	GET /v1/status
//	GET /v1/items/{id}/thumbnail   image/jpeg, 404 until rendered
//	GET /v1/items/{id}/content     the raw payload with its sniffed MIME type
//
// With a key configured every route answers 401 unless the request carries
// "Authorization: Bearer <token>".
func (s *Server) httpHandler() http.Handler {
	mux := gwruntime.NewServeMux()

	_ = mux.HandlePath(http.MethodGet, "/v1/status", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		st, err := s.status(r.Context())
		if err != nil {
			writeHTTPError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	})

	_ = mux.HandlePath(http.MethodGet, "/v1/items/{id}/thumbnail", func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		data, err := s.previews.Thumbnail(r.Context(), params["id"])
		if err != nil {
			writeHTTPError(w, err)
			return
		}
		if data == nil {
			writeHTTPError(w, errors.NewNotFound("thumbnail", params["id"]))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	})

	_ = mux.HandlePath(http.MethodGet, "/v1/items/{id}/content", func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		it, err := s.previews.Get(r.Context(), params["id"])
		if err != nil {
			writeHTTPError(w, err)
			return
		}
		mime := it.MIME
		if mime == "" {
			mime = "application/octet-stream"
		}
		w.Header().Set("Content-Type", mime)
		w.Header().Set("Content-Length", strconv.Itoa(len(it.Content())))
		_, _ = w.Write(it.Content())
	})

	return s.authorize(mux)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	want := []byte(s.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing or invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeHTTPError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.CodeOf(err) {
	case errors.ErrNotFound:
		status = http.StatusNotFound
	case errors.ErrInvalidRequest:
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"code":  string(errors.CodeOf(err)),
	})
}
