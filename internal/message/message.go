// Package message defines the shotcast IPC protocol spoken between the
// daemon and CLI tools.
//
// All messages are newline-delimited JSON. Payloads are always base64-encoded
// so that binary content (images, etc.) is safe to embed in JSON strings.
// Each message is exactly one line: <json>\n
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.klb.dev/shotcast/internal/item"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests
	TypeStatus   Type = "STATUS"
	TypeList     Type = "LIST"
	TypeShow     Type = "SHOW"
	TypeForget   Type = "FORGET"
	TypeFavorite Type = "FAVORITE"
	TypeTag      Type = "TAG"

	// Responses
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeItems          Type = "ITEMS"
	TypeDetail         Type = "DETAIL"
	TypeTagged         Type = "TAGGED"
	TypeOK             Type = "OK"
	TypeError          Type = "ERROR"
)

// Query selects items for LIST.
type Query struct {
	Limit      int      `json:"limit,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Favorites  bool     `json:"favorites,omitempty"`
	Tag        string   `json:"tag,omitempty"` // tag name
}

// Detail is a full item: the summary plus its payload.
type Detail struct {
	item.Summary
	FilePath string `json:"file_path,omitempty"`
	Content  string `json:"content"` // base64-encoded
}

// NewDetail builds the wire form of it.
func NewDetail(it *item.CapturedItem) *Detail {
	return &Detail{
		Summary:  it.Summarize(),
		FilePath: it.FilePath,
		Content:  base64.StdEncoding.EncodeToString(it.Content()),
	}
}

// Decode returns the raw payload bytes.
func (d *Detail) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Content)
}

// Status describes a running daemon.
type Status struct {
	Backend     string    `json:"backend"`
	DataDir     string    `json:"data_dir"`
	Encrypted   bool      `json:"encrypted"`
	StartedAt   time.Time `json:"started_at"`
	Items       int       `json:"items"`
	Rendered    int       `json:"rendered"`
	Unsupported int       `json:"unsupported"`
	Failed      int       `json:"failed"`
	Pending     int       `json:"pending"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// SHOW, FORGET, FAVORITE, TAG: target item
	ID string `json:"id,omitempty"`

	// LIST
	Query *Query `json:"query,omitempty"`

	// FAVORITE
	Favorite bool `json:"favorite,omitempty"`

	// TAG: tag name and optional color
	Tag   string `json:"tag,omitempty"`
	Color string `json:"color,omitempty"`

	// Responses
	Items     []item.Summary `json:"items,omitempty"`
	Detail    *Detail        `json:"detail,omitempty"`
	TagInfo   *item.Tag      `json:"tag_info,omitempty"`
	Status    *Status        `json:"status,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}

// IsRequest reports whether m is one of the request types.
func (m *Message) IsRequest() bool {
	switch m.Type {
	case TypeStatus, TypeList, TypeShow, TypeForget, TypeFavorite, TypeTag:
		return true
	}
	return false
}
