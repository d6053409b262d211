package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// JSONResponseBuilder provides a fluent API for building JSON and download
// responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	err        error
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body, b.err = json.Marshal(v)
	if b.err == nil {
		b.body = append(b.body, '\n')
	}
	return b
}

// Attachment sets a binary body served as a download named filename.
func (b *JSONResponseBuilder) Attachment(contentType, filename string, data []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.headers["Content-Length"] = strconv.Itoa(len(data))
	b.body = data
	return b
}

// Write sends the built response to the http.ResponseWriter. An encoding
// failure turns into a bare 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		http.Error(w, `{"error":"operation failed"}`, http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorBody struct {
	Error  string      `json:"error"`
	Fields []fieldBody `json:"fields,omitempty"`
}

type fieldBody struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError creates a 401 response with a bearer challenge.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).
		Header("WWW-Authenticate", `Bearer realm="billreminder"`)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed")
}
