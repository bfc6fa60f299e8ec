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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ClassifiesHTTPStatus(t *testing.T) {
	h := New(&HTTPStatusError{Code: http.StatusNotFound})
	assert.Equal(t, KindHTTPStatus, h.Kind())
	assert.Equal(t, http.StatusNotFound, h.StatusCode())
}

func TestHandler_ClassifiesSQLError(t *testing.T) {
	h := New(NewSQLError("duplicate key", 23505, "constraint violation"))
	assert.Equal(t, KindSQLError, h.Kind())
}

func TestHandler_ClassifiesPluginNotFound(t *testing.T) {
	h := New(&PluginNotFoundError{Requested: "db", Available: []string{"a", "b"}})
	assert.Equal(t, KindPluginNotFound, h.Kind())
}

func TestHandler_ClassifiesGenericAsFallback(t *testing.T) {
	h := New(errors.New("boom"))
	assert.Equal(t, KindGenericException, h.Kind())
	assert.Equal(t, http.StatusInternalServerError, h.StatusCode())
}

func TestHandler_ClassificationIsIdempotent(t *testing.T) {
	h := New(&HTTPStatusError{Code: 404})
	first := h.Kind()
	second := h.Kind()
	assert.Equal(t, first, second)
}

type fakeHeaders struct{ headers map[string]string }

func (f fakeHeaders) EffectiveHeaders() map[string]string { return f.headers }

type fakeErrorDocs struct {
	docs           map[int]Document
	showException  bool
	showStacktrace bool
}

func (f fakeErrorDocs) FindErrorDocument(status int) (Document, bool) {
	d, ok := f.docs[status]
	return d, ok
}
func (f fakeErrorDocs) ShowException() bool  { return f.showException }
func (f fakeErrorDocs) ShowStacktrace() bool { return f.showStacktrace }

func TestHandler_DumpHTTP_RedirectDocument(t *testing.T) {
	h := New(&HTTPStatusError{Code: http.StatusNotFound})
	docs := fakeErrorDocs{docs: map[int]Document{404: {Path: "http://errors.example/notfound"}}}

	rec := httptest.NewRecorder()
	h.DumpHTTP(rec, docs, nil, nil)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "http://errors.example/notfound", rec.Header().Get("Location"))
}

func TestHandler_DumpHTTP_SynthesizedWithHeaders(t *testing.T) {
	h := New(&HTTPStatusError{Code: http.StatusNotFound})
	headers := fakeHeaders{headers: map[string]string{"X-Server": "api", "X-Api": "1"}}

	rec := httptest.NewRecorder()
	h.DumpHTTP(rec, nil, headers, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "api", rec.Header().Get("X-Server"))
	assert.Equal(t, "1", rec.Header().Get("X-Api"))
	assert.Contains(t, rec.Body.String(), "404")
}

func TestHandler_DumpHTTP_SynthesizesPlainTextForPlainMIME(t *testing.T) {
	h := New(&HTTPStatusError{Code: http.StatusNotFound, MIME: "text/plain"})

	rec := httptest.NewRecorder()
	h.DumpHTTP(rec, nil, nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "404")
	assert.NotContains(t, rec.Body.String(), "<html>")
}

func TestHandler_DumpHTTP_SynthesizesRawWhatForOtherMIME(t *testing.T) {
	h := New(&HTTPStatusError{Code: http.StatusUnprocessableEntity, MIME: "application/json", What: `{"error":"invalid order"}`})

	rec := httptest.NewRecorder()
	h.DumpHTTP(rec, nil, nil, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"error":"invalid order"}`, rec.Body.String())
}

func TestHandler_DumpHTTP_HidesDetailsWhenShowExceptionFalse(t *testing.T) {
	h := New(errors.New("sensitive detail"))
	docs := fakeErrorDocs{showException: false}

	rec := httptest.NewRecorder()
	h.DumpHTTP(rec, docs, nil, nil)

	assert.NotContains(t, rec.Body.String(), "sensitive detail")
}

func TestHandler_Dump_WritesPlainDiagnostic(t *testing.T) {
	h := New(errors.New("boom"))
	var buf []byte
	w := &sliceWriter{&buf}
	h.Dump(w)
	assert.Contains(t, string(buf), "boom")
}

type sliceWriter struct{ buf *[]byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}
