package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"billreminder/internal/core"
)

// maxBodyBytes bounds bill create and update payloads.
const maxBodyBytes = 64 << 10

// errInvalidBillID is a NotFound so a malformed id reads like an unknown one.
var errInvalidBillID = fmt.Errorf("invalid bill id: %w", core.ErrNotFound)

// RequestBodyParser reads a bill payload sent either as JSON or as a
// url-encoded form.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the request body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("malformed JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// BillInput collects the editable bill fields. Any id or owner sent by the
// client is ignored.
func (p *RequestBodyParser) BillInput() (core.BillInput, error) {
	if err := p.Parse(); err != nil {
		return core.BillInput{}, err
	}
	return core.BillInput{
		Title:    p.Get("title"),
		Amount:   p.Get("amount"),
		Currency: p.Get("currency"),
		DueDate:  p.Get("dueDate"),
		Category: p.Get("category"),
		Status:   p.Get("status"),
	}, nil
}

// stringValue converts a decoded JSON value to its textual form. Numbers
// keep their literal text so amounts are not routed through float64.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ParseBillID reads the {id} route parameter.
func ParseBillID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidBillID
	}
	return id, nil
}

// ParseDateRange reads the from and to query parameters. A missing or
// malformed bound falls back to the default range, one month back to today.
func ParseDateRange(query url.Values, today core.Date) core.DateRange {
	rng := core.DefaultReportRange(today)
	if d, err := core.ParseDate(strings.TrimSpace(query.Get("from"))); err == nil {
		rng.From = d
	}
	if d, err := core.ParseDate(strings.TrimSpace(query.Get("to"))); err == nil {
		rng.To = d
	}
	return rng
}
