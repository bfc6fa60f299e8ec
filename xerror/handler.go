// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xerror

import (
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// LanguageNone and LanguageBuiltinScript are the recognised Document
// languages. Interpolation semantics for the builtin script language are
// opaque to this package and must be supplied by the caller.
const (
	LanguageNone          = ""
	LanguageBuiltinScript = "builtin-script"
)

// Document describes an error-document rule.
type Document struct {
	Path     string
	Language string
}

// HeadersProvider exposes the frozen effective header set of the context
// nearest a failing dispatch. httpctx.Context
// implements this.
type HeadersProvider interface {
	EffectiveHeaders() map[string]string
}

// ErrorDocumentProvider exposes error-document lookup and the
// showException/showStacktrace flags of the context nearest a failing
// dispatch. httpctx.Context implements this.
type ErrorDocumentProvider interface {
	FindErrorDocument(statusCode int) (Document, bool)
	ShowException() bool
	ShowStacktrace() bool
}

// Interpolator renders a builtin-script error document. Its grammar is out
// of scope; callers that never use LanguageBuiltinScript documents
// may leave it nil.
type Interpolator func(path string, status int, h *Handler) (string, error)

// Handler captures a single error and lazily classifies it into the error
// taxonomy. Classification is idempotent: repeated Dump/DumpHTTP calls
// reuse the first classification.
type Handler struct {
	err error

	initialized     bool
	kind            Kind
	plainException  string
	plainWhat       string
	plainDetails    string
	fileMessage     string
	stacktrace      string
	statusCode      int    // meaningful only for KindHTTPStatus
	httpContentType string // MIME carried by a status error; "" means text/html
}

// New captures err for later classification and rendering.
func New(err error) *Handler {
	return &Handler{err: err}
}

func (h *Handler) initialize() {
	if h.initialized {
		return
	}
	h.initialized = true

	if h.err == nil {
		h.kind = KindUnknown
		h.plainException = "unknown exception"
		return
	}

	if ws, ok := h.err.(WithStacktrace); ok {
		h.stacktrace = ws.Stacktrace()
	}
	if wp, ok := h.err.(WithFilePosition); ok {
		pos := wp.FilePosition()
		h.fileMessage = fmt.Sprintf("%s:%d", pos.File, pos.Line)
	}

	var statusErr *HTTPStatusError
	var sqlErr *SQLError
	var pluginErr *PluginNotFoundError

	switch {
	case errors.As(h.err, &statusErr):
		h.kind = KindHTTPStatus
		h.statusCode = statusErr.Code
		h.httpContentType = statusErr.MIME
		h.plainException = fmt.Sprintf("HTTPStatus %d", statusErr.Code)
		if statusErr.What != "" && statusErr.What != http.StatusText(statusErr.Code) {
			h.plainWhat = statusErr.What
		} else {
			h.plainWhat = http.StatusText(statusErr.Code)
		}

	case errors.As(h.err, &sqlErr):
		h.kind = KindSQLError
		h.plainException = "SQLError"
		h.plainWhat = sqlErr.Error()
		h.plainDetails = fmt.Sprintf("SQL Return Code: %d\n%s", sqlErr.ReturnCode, sqlErr.Diagnostics)

	case errors.As(h.err, &pluginErr):
		h.kind = KindPluginNotFound
		h.plainException = "PluginNotFound"
		h.plainWhat = pluginErr.Error()
		h.plainDetails = fmt.Sprintf("available implementations: %s", strings.Join(pluginErr.Available, ", "))

	default:
		h.kind = classifyStandard(h.err)
		h.plainException = fmt.Sprintf("%T", h.err)
		h.plainWhat = h.err.Error()
	}
}

// classifyStandard maps well-known standard-library error shapes onto the
// RuntimeError/OutOfRange/InvalidArgument/GenericException kinds: errors
// with a Timeout method are RuntimeError, messages containing "out of
// range" or "invalid argument" are OutOfRange or InvalidArgument. Anything
// unrecognised (but non-nil) is GenericException. LogicError is never
// produced here.
func classifyStandard(err error) Kind {
	switch err.(type) {
	case interface{ Timeout() bool }:
		return KindRuntimeError
	}
	switch {
	case strings.Contains(err.Error(), "out of range"):
		return KindOutOfRange
	case strings.Contains(err.Error(), "invalid argument"):
		return KindInvalidArgument
	default:
		return KindGenericException
	}
}

// Kind returns the classified error kind.
func (h *Handler) Kind() Kind {
	h.initialize()
	return h.kind
}

// StatusCode returns the HTTP status to report for this error: the
// HTTPStatus kind's code, or 500 for anything else.
func (h *Handler) StatusCode() int {
	h.initialize()
	if h.kind == KindHTTPStatus {
		return h.statusCode
	}
	return http.StatusInternalServerError
}

// Dump writes the multi-line diagnostic format to w.
func (h *Handler) Dump(w io.Writer) {
	h.initialize()
	fmt.Fprintf(w, "Exception : %s\n", h.plainException)
	fmt.Fprintf(w, "What      : %s\n", h.plainWhat)
	if h.plainDetails != "" {
		fmt.Fprintf(w, "Details   : %s\n", h.plainDetails)
	}
	if h.fileMessage != "" {
		fmt.Fprintf(w, "Position  : %s\n", h.fileMessage)
	}
	if h.stacktrace == "" {
		fmt.Fprintf(w, "Stacktrace: not available\n")
	} else {
		fmt.Fprintf(w, "Stacktrace: %s\n", h.stacktrace)
	}
}

// DumpLog writes the same diagnostic via a structured logger, one
// attribute per field.
func (h *Handler) DumpLog(logger *slog.Logger) {
	h.initialize()
	attrs := []any{
		"exception", h.plainException,
		"what", h.plainWhat,
	}
	if h.plainDetails != "" {
		attrs = append(attrs, "details", h.plainDetails)
	}
	if h.fileMessage != "" {
		attrs = append(attrs, "position", h.fileMessage)
	}
	if h.stacktrace != "" {
		attrs = append(attrs, "stacktrace", h.stacktrace)
	}
	logger.Error("unhandled exception", attrs...)
}

// CaptureStacktrace is a convenience for callers building an error value
// that should carry a stacktrace for later rendering; it is not invoked
// automatically since Handler only classifies, it does not capture.
func CaptureStacktrace() string {
	return string(debug.Stack())
}

// DumpHTTP renders the error as an HTTP response on w. errDocs and headers may be nil, in which case synthesis (step 3)
// and an empty header set are used respectively.
func (h *Handler) DumpHTTP(w http.ResponseWriter, errDocs ErrorDocumentProvider, headers HeadersProvider, interpolate Interpolator) {
	h.initialize()
	status := h.StatusCode()

	if headers != nil {
		for k, v := range headers.EffectiveHeaders() {
			w.Header().Set(k, v)
		}
	}

	if errDocs != nil {
		if doc, ok := errDocs.FindErrorDocument(status); ok {
			if h.renderDocument(w, status, doc, interpolate) {
				return
			}
		}
	}

	h.renderSynthesized(w, status, errDocs)
}

// renderDocument dispatches on the document path's scheme. Returns false
// if the document could not be rendered (caller falls through to
// synthesis).
func (h *Handler) renderDocument(w http.ResponseWriter, status int, doc Document, interpolate Interpolator) bool {
	switch {
	case strings.HasPrefix(doc.Path, "http://") || strings.HasPrefix(doc.Path, "https://"):
		w.Header().Set("Location", doc.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusMovedPermanently)
		fmt.Fprintf(w, "<html><body>Moved to <a href=\"%s\">%s</a></body></html>", html.EscapeString(doc.Path), html.EscapeString(doc.Path))
		return true

	case doc.Language == LanguageBuiltinScript:
		if interpolate == nil {
			return false
		}
		body, err := interpolate(doc.Path, status, h)
		if err != nil {
			return false
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		io.WriteString(w, body)
		return true

	default:
		path := strings.TrimPrefix(doc.Path, "file://")
		f, err := os.Open(path)
		if err != nil {
			return false
		}
		defer f.Close()
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		io.Copy(w, f)
		return true
	}
}

// renderSynthesized produces the fallback body, consulting
// showException/showStacktrace. The content type comes from the status
// error's MIME when it carried one: text/html and text/plain get a
// structured body, any other MIME gets the raw what string.
func (h *Handler) renderSynthesized(w http.ResponseWriter, status int, errDocs ErrorDocumentProvider) {
	showException := true
	showStacktrace := false
	if errDocs != nil {
		showException = errDocs.ShowException()
		showStacktrace = errDocs.ShowStacktrace()
	}

	contentType := h.httpContentType
	if contentType == "" {
		contentType = "text/html"
	}

	switch contentType {
	case "text/html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, "<html><body><h1>%d %s</h1>", status, html.EscapeString(http.StatusText(status)))
		if showException {
			fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(h.plainWhat))
			if h.plainDetails != "" {
				fmt.Fprintf(w, "<pre>%s</pre>", html.EscapeString(h.plainDetails))
			}
			if showStacktrace && h.stacktrace != "" {
				fmt.Fprintf(w, "<pre>%s</pre>", html.EscapeString(h.stacktrace))
			}
		}
		fmt.Fprint(w, "</body></html>")

	case "text/plain":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, "%d %s\n", status, http.StatusText(status))
		if showException {
			fmt.Fprintf(w, "\nException: %s\n", h.plainWhat)
			if h.plainDetails != "" {
				fmt.Fprintf(w, "\nDetails:\n%s\n", h.plainDetails)
			}
			if showStacktrace && h.stacktrace != "" {
				fmt.Fprintf(w, "\nStacktrace:\n%s\n", h.stacktrace)
			}
		}

	default:
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		io.WriteString(w, h.plainWhat)
	}
}
