package document

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNotObject reports a payload whose top-level value is not a JSON object.
var ErrNotObject = errors.New("document: payload is not a JSON object")

// Encode serializes doc as the change request payload.
func Encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document: encode: %w", err)
	}
	return data, nil
}

// EncodeString is Encode returning a string payload.
func EncodeString(doc Document) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a payload into a document. Numbers decode as float64.
func Decode(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("document: decode: %w", err)
	}
	if doc == nil {
		return nil, ErrNotObject
	}
	return doc, nil
}

// DecodeOrEmpty decodes payload and falls back to an empty document when it is
// blank or malformed. Malformed payloads are logged at warn level.
func DecodeOrEmpty(logger *slog.Logger, payload string) Document {
	if strings.TrimSpace(payload) == "" {
		return Document{}
	}
	doc, err := Decode([]byte(payload))
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("discarding unreadable payload", "error", err, "bytes", len(payload))
		return Document{}
	}
	return doc
}
