package signup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/render"
)

// RequestIDHeader carries the request correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

var errUnsupportedMedia = errors.New("signup: unsupported content type")

// requestID returns the caller supplied ID when it is usable, or a new uuid.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(RequestIDHeader)); id != "" && len(id) <= maxRequestIDLength {
		return id
	}
	return uuid.NewString()
}

func mediaType(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

// wantsJSON reports whether the response should be JSON: the client either
// sent JSON or lists application/json in Accept.
func wantsJSON(r *http.Request) bool {
	if mediaType(r.Header.Get("Content-Type")) == "application/json" {
		return true
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if mediaType(part) == "application/json" {
			return true
		}
	}
	return false
}

// CSRFHeader carries the token for clients that post JSON without the
// hidden _csrf input.
const CSRFHeader = "X-CSRF-Token"

// readEntries decodes the request body into ordered entries. order lists the
// form's field names so entries follow the definition. Reserved page inputs
// such as _csrf are split off into the returned map, last value wins.
func readEntries(w http.ResponseWriter, r *http.Request, order []string, maxBytes int64) ([]collect.FieldEntry, map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var entries []collect.FieldEntry
	switch mediaType(r.Header.Get("Content-Type")) {
	case "application/json":
		payload := map[string]any{}
		decoder := json.NewDecoder(r.Body)
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("signup: decode json body: %w", err)
		}
		entries = collect.EntriesFromMap(payload, order)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, nil, fmt.Errorf("signup: parse multipart body: %w", err)
		}
		entries = collect.Entries(url.Values(r.MultipartForm.Value), order)
	case "", "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, fmt.Errorf("signup: parse form body: %w", err)
		}
		entries = collect.Entries(r.PostForm, order)
	default:
		return nil, nil, errUnsupportedMedia
	}

	reserved := map[string]string{}
	out := entries[:0]
	for _, entry := range entries {
		if render.IsReserved(entry.Name) {
			reserved[entry.Name] = entry.Value
			continue
		}
		out = append(out, entry)
	}
	return out, reserved, nil
}

// submittedCSRF returns the token posted in the hidden input, falling back
// to CSRFHeader.
func submittedCSRF(r *http.Request, reserved map[string]string) string {
	if token := strings.TrimSpace(reserved[render.CSRFFieldName]); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get(CSRFHeader))
}

// bodyErrorStatus maps a body parsing error to a response status.
func bodyErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}
