package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabconvert/internal/config"
	"github.com/JonMunkholm/tabconvert/internal/core"
	_ "github.com/JonMunkholm/tabconvert/internal/core/formats"
)

func newTestServer(t *testing.T, maxFileSize int64) *Server {
	t.Helper()

	cfg := &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:   maxFileSize,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       10 * time.Second,
			TempDir:       t.TempDir(),
		},
		Security: config.SecurityConfig{AllowedOrigins: []string{"*"}},
	}
	return NewServer(core.NewService(cfg, nil), cfg)
}

// multipartBody builds a form with a file part plus extra fields.
func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if content != nil {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, s *Server, target, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestConvert_CSVToSpreadsheet(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := post(t, s, "/convert", "orders.csv",
		[]byte("id;amount\n1;1,500\n1;1,500\n;\n2;NULL\n"), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}

	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil || params["filename"] != "orders.xlsx" {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}

	wantHeaders := map[string]string{
		headerDelimiter:     "comma",
		headerRowsMalformed: "0",
		headerRowsEmpty:     "1",
		headerRowsDuplicate: "1",
	}
	for k, v := range wantHeaders {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get(headerConversionID) == "" {
		t.Errorf("%s missing", headerConversionID)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Cleaned")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	want := [][]string{{"id", "amount"}, {"1", "1500"}, {"2", "NA"}}
	if len(rows) != len(want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
	for i := range want {
		if strings.Join(rows[i], ",") != strings.Join(want[i], ",") {
			t.Errorf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestConvert_SpreadsheetToCSV(t *testing.T) {
	s := newTestServer(t, 1<<20)

	data := workbook(t,
		[]interface{}{"name ", "qty"},
		[]interface{}{" bolt", 3},
		[]interface{}{"bolt", 3},
	)
	rec := post(t, s, "/convert-excel-to-csv", "stock.xlsx", data, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if got, want := rec.Body.String(), "\uFEFFname,qty\nbolt,3\n"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get(headerDelimiter) != "" {
		t.Errorf("%s set for a spreadsheet source", headerDelimiter)
	}
}

func TestConvert_Generic(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := post(t, s, "/api/convert?to=csv", "data.tsv", []byte("a\tb\n1\t2\n"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if got, want := rec.Body.String(), "\uFEFFa,b\n1,2\n"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}

	// Target and source may also come from form fields.
	rec = post(t, s, "/api/convert", "export.dat", []byte("a|b\n1|2\n"),
		map[string]string{"to": "xlsx", "from": "csv"})
	if rec.Code != http.StatusOK {
		t.Fatalf("form fields: status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(headerDelimiter) != "pipe" {
		t.Errorf("%s = %q, want pipe", headerDelimiter, rec.Header().Get(headerDelimiter))
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		filename   string
		content    []byte
		limit      int64
		wantStatus int
		wantCode   string
	}{
		{"no file part", "/convert", "", nil, 1 << 20, http.StatusBadRequest, "FILE004"},
		{"no file selected", "/convert", "", []byte{}, 1 << 20, http.StatusBadRequest, "FILE006"},
		{"empty file", "/convert", "a.csv", []byte{}, 1 << 20, http.StatusBadRequest, "FILE005"},
		{"no header", "/convert", "a.csv", []byte("\n\n"), 1 << 20, http.StatusInternalServerError, "FILE002"},
		{"too large", "/convert", "a.csv", bytes.Repeat([]byte("a\n"), 100), 64, http.StatusRequestEntityTooLarge, "FILE001"},
		{"unknown target", "/api/convert?to=pdf", "a.csv", []byte("a\n1\n"), 1 << 20, http.StatusUnsupportedMediaType, "FMT001"},
		{"unknown source extension", "/api/convert?to=xlsx", "a.pdf", []byte("a\n1\n"), 1 << 20, http.StatusUnsupportedMediaType, "FMT001"},
		{"invalid workbook", "/convert-excel-to-csv", "a.xlsx", []byte("not a zip"), 1 << 20, http.StatusInternalServerError, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.limit)
			rec := post(t, s, tt.target, tt.filename, tt.content, nil)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %q, want code %s", rec.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestConvert_NotMultipart(t *testing.T) {
	s := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("a,b\n1,2\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestConvert_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestListFormats(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var infos []FormatInfo
	if err := json.NewDecoder(rec.Body).Decode(&infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("formats = %+v, want 2", infos)
	}
	if infos[0].Format != core.FormatDelimited || infos[1].Format != core.FormatSpreadsheet {
		t.Errorf("formats = %+v", infos)
	}
	for _, info := range infos {
		if !info.Readable || !info.Writable {
			t.Errorf("%s: readable=%v writable=%v", info.Format, info.Readable, info.Writable)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	body, _ := io.ReadAll(rec.Body)
	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	if health.Status != "ok" || health.Conversions.MaxConcurrent != 2 {
		t.Errorf("health = %+v", health)
	}
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	s := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, headerConversionID) {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoFile, http.StatusBadRequest},
		{core.ErrEmptyFile, http.StatusBadRequest},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{core.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{core.ErrTooManyConversions, http.StatusServiceUnavailable},
		{core.ErrParseFailure, http.StatusInternalServerError},
		{core.NewExportError(core.FormatSpreadsheet, io.ErrShortWrite), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
