package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestRegistry_ObserveFile(t *testing.T) {
	r := NewRegistry()
	r.ObserveFile("yes24", "ok", 3, 10*time.Millisecond)
	r.ObserveFile("yes24", "ok", 2, 5*time.Millisecond)
	r.ObserveFile("aladin", "failed", 0, time.Millisecond)
	r.ObserveFile("unknown", "cancelled", 0, 0)

	body := scrape(t, r)
	for _, want := range []string{
		`settlement_files_total{format="yes24",status="ok"} 2`,
		`settlement_files_total{format="aladin",status="failed"} 1`,
		`settlement_files_total{format="unknown",status="cancelled"} 1`,
		`settlement_records_total{format="yes24"} 5`,
		`settlement_file_duration_seconds_count{format="yes24"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
	if strings.Contains(body, `settlement_records_total{format="aladin"}`) {
		t.Error("failed files should not create a records series")
	}
}

func TestRegistry_ObserveBatchAndRequest(t *testing.T) {
	r := NewRegistry()
	r.ObserveBatch(3, 6, 50*time.Millisecond)
	r.ObserveRequest("/api/settlements", http.StatusOK)
	r.ObserveRequest("/api/settlements", http.StatusServiceUnavailable)

	body := scrape(t, r)
	for _, want := range []string{
		"settlement_batches_total 1",
		"settlement_batch_records_count 1",
		"settlement_batch_records_sum 6",
		`settlement_http_requests_total{code="200",route="/api/settlements"} 1`,
		`settlement_http_requests_total{code="503",route="/api/settlements"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveBatch(1, 2, time.Second)

	path := filepath.Join(t.TempDir(), "settle.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "settlement_batches_total 1") {
		t.Errorf("textfile = %s", data)
	}
}
