package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/dealdesk/prospectus/internal/config"
	"github.com/dealdesk/prospectus/internal/extract"
	"github.com/dealdesk/prospectus/internal/models"
)

func newTestServer(maxUploadMB int) *Server {
	cfg := &config.ServerConfig{Host: "localhost", Port: 8080, MaxUploadMB: maxUploadMB}
	return NewServer(extract.NewExtractor(), cfg, zap.NewNop())
}

func memoPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		doc.Cell(0, 10, line)
		doc.Ln(12)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("generate PDF: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart POST to /parse-pdf. An empty filename
// produces a part whose Content-Disposition carries filename="".
func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	var (
		fw  io.Writer
		err error
	)
	if filename == "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=""`, field))
		h.Set("Content-Type", "application/octet-stream")
		fw, err = mw.CreatePart(h)
	} else {
		fw, err = mw.CreateFormFile(field, filename)
	}
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/parse-pdf", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func decodeError(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out.Error
}

func TestHandleParsePDF_AllFields(t *testing.T) {
	srv := newTestServer(32)
	content := memoPDF(t,
		"280 RICHARDS",
		"BROOKLYN, NEW YORK CITY",
		"312,000 SQUARE FEET",
	)

	w := httptest.NewRecorder()
	srv.handleParsePDF(w, uploadRequest(t, "file", "memo.pdf", content))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var result models.ExtractionResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.PropertyName == nil || *result.PropertyName != "280 Richards" {
		t.Errorf("property_name: got %v", result.PropertyName)
	}
	// Normalization collapses NEW YORK CITY at word boundaries into
	// NEWYORKCITY, which resolves via the truncated NEWYOR alternative.
	if result.Address == nil || *result.Address != "Brooklyn, New York" {
		t.Errorf("address: got %v", result.Address)
	}
	if result.TotalRentableSquareFootage == nil || *result.TotalRentableSquareFootage != 312000 {
		t.Errorf("square footage: got %v", result.TotalRentableSquareFootage)
	}
}

func TestHandleParsePDF_PartialExtraction(t *testing.T) {
	srv := newTestServer(32)
	content := memoPDF(t, "280 RICHARDS", "BROOKLYN, NEWYORCITY")

	w := httptest.NewRecorder()
	srv.handleParsePDF(w, uploadRequest(t, "file", "memo.pdf", content))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Error     string                  `json:"error"`
		Extracted models.ExtractionResult `json:"extracted"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Error != "Could not reliably extract all key information." {
		t.Errorf("error: got %q", out.Error)
	}
	if out.Extracted.PropertyName == nil || *out.Extracted.PropertyName != "280 Richards" {
		t.Errorf("property_name: got %v", out.Extracted.PropertyName)
	}
	if out.Extracted.Address == nil || *out.Extracted.Address != "Brooklyn, New York City" {
		t.Errorf("address: got %v", out.Extracted.Address)
	}
	if out.Extracted.TotalRentableSquareFootage != nil {
		t.Errorf("square footage: got %d, want null", *out.Extracted.TotalRentableSquareFootage)
	}
}

func TestHandleParsePDF_NotAPDF(t *testing.T) {
	srv := newTestServer(32)
	w := httptest.NewRecorder()
	srv.handleParsePDF(w, uploadRequest(t, "file", "notes.txt", []byte("plain text, not a pdf")))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if msg := decodeError(t, w.Body); !strings.Contains(msg, "Error processing PDF file") {
		t.Errorf("error: got %q", msg)
	}
}

func TestHandleParsePDF_NoFilePart(t *testing.T) {
	srv := newTestServer(32)
	w := httptest.NewRecorder()
	srv.handleParsePDF(w, uploadRequest(t, "document", "memo.pdf", []byte("ignored")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if msg := decodeError(t, w.Body); msg != "No file part in the request." {
		t.Errorf("error: got %q", msg)
	}
}

func TestHandleParsePDF_NotMultipart(t *testing.T) {
	srv := newTestServer(32)
	r := httptest.NewRequest(http.MethodPost, "/parse-pdf", strings.NewReader(`{"file":"x"}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.handleParsePDF(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
	if msg := decodeError(t, w.Body); msg != "No file part in the request." {
		t.Errorf("error: got %q", msg)
	}
}

func TestHandleParsePDF_EmptyFilename(t *testing.T) {
	srv := newTestServer(32)
	w := httptest.NewRecorder()
	srv.handleParsePDF(w, uploadRequest(t, "file", "", []byte("content")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if msg := decodeError(t, w.Body); msg != "No selected file." {
		t.Errorf("error: got %q", msg)
	}
}

func TestHandleParsePDF_TooLarge(t *testing.T) {
	srv := newTestServer(1)
	w := httptest.NewRecorder()
	srv.handleParsePDF(w, uploadRequest(t, "file", "big.pdf", make([]byte, 2<<20)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(32)
	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" {
		t.Errorf("status field: got %q", out["status"])
	}
}

func TestRecoverer(t *testing.T) {
	srv := newTestServer(32)
	h := srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", w.Code)
	}
	if msg := decodeError(t, w.Body); msg != "boom" {
		t.Errorf("error: got %q", msg)
	}
}

func TestRouter_ParseEndpointWired(t *testing.T) {
	srv := newTestServer(32)
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status: got %d", resp.StatusCode)
	}

	resp2, err := http.Post(ts.URL+"/parse-pdf", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("parse-pdf status: got %d, want 400", resp2.StatusCode)
	}
}
