package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/settlement/internal/config"
	"github.com/JonMunkholm/settlement/internal/core"
	"github.com/JonMunkholm/settlement/internal/metrics"
	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Upload: config.UploadConfig{
			MaxFileSize:   5 << 20,
			MaxFiles:      3,
			MaxConcurrent: 1,
			MaxWaitTime:   time.Second,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	svc := core.NewService(core.ServiceOptions{
		Processor:     core.ProcessorOptions{Observer: reg},
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
	})
	s := NewServer(svc, reg, cfg)
	t.Cleanup(func() { s.limiter.stop() })
	return s, reg
}

// yes24Workbook returns an .xlsx with two purchase rows.
func yes24Workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"입고번호", "상품명", "ISBN13", "입고수량", "원가", "조정입고금액", "정가", "입고율"},
		{"A-1", "책 A", "9788912345678", 10, 7000, 70000, 10000, 70},
		{"A-2", "책 B", "0012345678901", 2, 6500, 13000, 9000, 72},
	}
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type upload struct {
	name string
	data []byte
}

func settleRequest(t *testing.T, format string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if format != "" {
		if err := mw.WriteField("format", format); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/settlements", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return e
}

func TestHandleListFormats(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []FormatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Key != "yes24" || got[2].PerBook {
		t.Errorf("formats = %+v", got)
	}
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Status  string                  `json:"status"`
		Version string                  `json:"version"`
		Batches core.BatchLimiterStatus `json:"batches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || got.Version != core.Version || got.Batches.MaxConcurrent != 1 {
		t.Errorf("health = %+v", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestHandleSettle_JSON(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	req := settleRequest(t, "",
		upload{"예스24_구매내역.xlsx", yes24Workbook(t)},
		upload{"report.xlsx", yes24Workbook(t)},
	)
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got SettlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.RunID == "" || got.Total != 2 || len(got.Records) != 2 {
		t.Fatalf("response = %+v", got)
	}
	if got.Files[0].Name != "예스24_구매내역.xlsx" || got.Files[0].Records != 2 || got.Files[0].Error != nil {
		t.Errorf("files[0] = %+v", got.Files[0])
	}
	if got.Files[1].Error == nil || got.Files[1].Error.Code != "FMT001" {
		t.Errorf("files[1] = %+v, want FMT001", got.Files[1])
	}
	if len(got.Summary) != 1 || got.Summary[0].Quantity != 12 || got.Summary[0].Line != "- 예스24: 수량 12 / 금액 83,000원" {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Records[1].ISBN != "0012345678901" || got.Records[0].Store != string(core.StoreYes24) {
		t.Errorf("records = %+v", got.Records)
	}
	if len(got.Columns) != len(core.CanonicalColumns) {
		t.Errorf("columns = %v", got.Columns)
	}

	scrape := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	for _, want := range []string{
		`settlement_files_total{format="yes24",status="ok"} 1`,
		`settlement_files_total{format="unknown",status="failed"} 1`,
		"settlement_batches_total 1",
		`settlement_http_requests_total{code="200",route="/api/settlements"} 1`,
	} {
		if !strings.Contains(scrape, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestHandleSettle_CSVDownload(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := serve(s, settleRequest(t, "csv", upload{"yes24.xlsx", yes24Workbook(t)}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Header().Get("X-Settlement-Records") != "2" {
		t.Errorf("X-Settlement-Records = %q", rec.Header().Get("X-Settlement-Records"))
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "\xEF\xBB\xBF도서명,") {
		t.Errorf("csv should start with BOM and header, got %q", body[:min(len(body), 40)])
	}
}

func TestHandleSettle_XLSXDownload(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := serve(s, settleRequest(t, "xlsx", upload{"yes24.xlsx", yes24Workbook(t)}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open download: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(core.ExportSheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0][0] != "도서명" {
		t.Errorf("rows = %v", rows)
	}
}

func TestHandleSettle_Rejections(t *testing.T) {
	tiny := testConfig()
	tiny.Upload.MaxFileSize = 16

	tests := []struct {
		name       string
		cfg        *config.Config
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name: "no files",
			cfg:  testConfig(),
			req: func(t *testing.T) *http.Request {
				return settleRequest(t, "json")
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "REQ002",
		},
		{
			name: "not multipart",
			cfg:  testConfig(),
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/settlements", strings.NewReader("x"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "REQ001",
		},
		{
			name: "too many files",
			cfg:  testConfig(),
			req: func(t *testing.T) *http.Request {
				f := upload{"yes24.xlsx", []byte("x")}
				return settleRequest(t, "", f, f, f, f)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "REQ003",
		},
		{
			name: "file too large",
			cfg:  tiny,
			req: func(t *testing.T) *http.Request {
				return settleRequest(t, "", upload{"yes24.xlsx", bytes.Repeat([]byte("x"), 64)})
			},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "REQ004",
		},
		{
			name: "unknown response format",
			cfg:  testConfig(),
			req: func(t *testing.T) *http.Request {
				return settleRequest(t, "xml", upload{"yes24.xlsx", []byte("x")})
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "REQ006",
		},
		{
			name: "download with nothing accumulated",
			cfg:  testConfig(),
			req: func(t *testing.T) *http.Request {
				return settleRequest(t, "xlsx", upload{"notes.txt", []byte("x")})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "RUN001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.cfg)
			rec := serve(s, tt.req(t))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec); got.Code != tt.wantCode || got.Message == "" {
				t.Errorf("error = %+v, want code %s", got, tt.wantCode)
			}
		})
	}
}

func TestHandleSettle_EmptyBatchJSON(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	rec := serve(s, settleRequest(t, "", upload{"yes24_notes.txt", []byte("x")}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got SettlementResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Total != 0 || got.Files[0].Error == nil || got.Files[0].Error.Code != "FILE001" {
		t.Errorf("response = %+v", got)
	}
	if got.Message != "" {
		t.Errorf("Message = %q, want empty when a file reported its own error", got.Message)
	}
}

func TestHandleSettle_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxWaitTime = 20 * time.Millisecond
	s, _ := newTestServer(t, cfg)

	if err := s.service.Limiter().Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire on idle limiter: %v", err)
	}
	defer s.service.Limiter().Release()

	rec := serve(s, settleRequest(t, "", upload{"yes24.xlsx", yes24Workbook(t)}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != "RUN002" {
		t.Errorf("code = %s, want RUN002", got.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s, _ := newTestServer(t, cfg)

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/formats", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rec.Code)
	}

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz should not need a key, status = %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(rate.Every(time.Hour), 2)
	defer rl.stop()

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Error("third request should be limited")
	}
	if !rl.allow("b") {
		t.Error("other clients have their own budget")
	}
}

func TestUploadName(t *testing.T) {
	tests := map[string]string{
		"예스24.xlsx":                 "예스24.xlsx",
		`C:\Users\me\교보_정산.xlsx`:     "교보_정산.xlsx",
		"../../etc/passwd":            "passwd",
		"":                            "upload",
		"..":                          "upload",
	}
	for in, want := range tests {
		if got := uploadName(in); got != want {
			t.Errorf("uploadName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	if statusFor(core.ErrTooManyBatches) != http.StatusServiceUnavailable {
		t.Error("busy limiter should map to 503")
	}
	if statusFor(core.ErrEmptyResult) != http.StatusUnprocessableEntity {
		t.Error("empty result should map to 422")
	}
	if statusFor(io.ErrUnexpectedEOF) != http.StatusInternalServerError {
		t.Error("unknown errors should map to 500")
	}
}
