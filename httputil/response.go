package httputil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if nil != err {
		return fmt.Errorf("failed to encode response body: %v", err)
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(b); nil != err {
		return fmt.Errorf("failed to write response body: %v", err)
	}

	return nil
}

func WriteText(w http.ResponseWriter, status int, body string) error {
	w.Header().Set("Content-Type", ContentTypeText)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); nil != err {
		return fmt.Errorf("failed to write response body: %v", err)
	}

	return nil
}

// AttachmentDisposition builds a Content-Disposition header value for a
// download. Every byte of name outside [A-Za-z0-9_.~-] is percent-encoded.
func AttachmentDisposition(name string) string {
	return `attachment; filename="` + strings.ReplaceAll(url.QueryEscape(name), "+", "%20") + `"`
}
