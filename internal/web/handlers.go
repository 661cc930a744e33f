package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/settlement/internal/core"
	"github.com/JonMunkholm/settlement/internal/logging"
	"golang.org/x/sync/errgroup"
)

// multipartMemory is the part of a multipart form kept in memory; larger
// uploads spill to temporary files.
const multipartMemory = 32 << 20

// multipartOverhead allows for boundaries and part headers on top of the
// file payloads.
const multipartOverhead = 1 << 20

// saveParallelism bounds concurrent copies of uploaded parts to disk.
const saveParallelism = 4

var errFileTooLarge = errors.New("file exceeds size limit")

type responseFormat string

const (
	responseJSON responseFormat = "json"
	responseCSV  responseFormat = "csv"
	responseXLSX responseFormat = "xlsx"
)

func parseResponseFormat(v string) (responseFormat, bool) {
	switch f := responseFormat(strings.ToLower(strings.TrimSpace(v))); f {
	case "":
		return responseJSON, true
	case responseJSON, responseCSV, responseXLSX:
		return f, true
	default:
		return "", false
	}
}

// handleHealth reports liveness plus the batch limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": core.Version,
		"batches": s.service.Limiter().Status(),
	})
}

// handleListFormats returns every recognized partner format.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, newFormatResponses(s.service.ListFormats()))
}

// handleSettle runs one batch over the uploaded workbooks.
//
// Form fields:
//   - files: one or more partner workbooks; the filename selects the format
//   - format: json (default), csv or xlsx
//
// JSON responses always carry the per-file results. File downloads are only
// produced when the batch accumulated records; otherwise the batch error is
// returned as JSON.
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	limits := s.cfg.Upload
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileSize*int64(limits.MaxFiles)+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ001",
			"업로드 양식을 읽을 수 없습니다", "파일 크기와 개수를 확인하세요")
		return
	}
	defer r.MultipartForm.RemoveAll()

	respFormat, ok := parseResponseFormat(r.FormValue("format"))
	if !ok {
		writeError(w, r, http.StatusBadRequest, "REQ006",
			"지원하지 않는 응답 형식입니다", "format 값으로 json, csv, xlsx 중 하나를 사용하세요")
		return
	}

	headers := r.MultipartForm.File["files"]
	switch {
	case len(headers) == 0:
		writeError(w, r, http.StatusBadRequest, "REQ002",
			"업로드된 파일이 없습니다", "files 필드로 정산 파일을 첨부하세요")
		return
	case len(headers) > limits.MaxFiles:
		writeError(w, r, http.StatusBadRequest, "REQ003",
			fmt.Sprintf("한 번에 최대 %d개 파일까지 처리할 수 있습니다", limits.MaxFiles),
			"파일을 나누어 업로드하세요")
		return
	}

	dir, err := os.MkdirTemp("", "settle-upload-*")
	if err != nil {
		respondError(w, r, fmt.Errorf("create upload dir: %w", err), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	paths, err := saveUploads(dir, headers, limits.MaxFileSize)
	if errors.Is(err, errFileTooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "REQ004",
			fmt.Sprintf("파일 크기가 %dMB를 넘습니다", limits.MaxFileSize>>20),
			"파일을 나누어 업로드하세요")
		return
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	result, err := s.service.Settle(r.Context(), paths, nil)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	if respFormat == responseJSON {
		writeJSON(w, r, http.StatusOK, newSettlementResponse(result))
		return
	}

	if result.Err != nil {
		respondError(w, r, result.Err, statusFor(result.Err))
		return
	}

	kind := core.ExportXLSX
	if respFormat == responseCSV {
		kind = core.ExportCSV
	}
	var buf bytes.Buffer
	if err := core.Encode(&buf, kind, result.Table); err != nil {
		respondError(w, r, &core.ExportError{Path: "response", Err: err}, http.StatusInternalServerError)
		return
	}

	name := strings.TrimSuffix(core.DefaultExportName(time.Now()), ".xlsx") + kind.Extension()
	w.Header().Set("Content-Type", kind.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Settlement-Run-Id", result.RunID)
	w.Header().Set("X-Settlement-Records", strconv.Itoa(result.Table.Len()))
	w.Header().Set("X-Settlement-Failed-Files", strconv.Itoa(len(result.Failed())))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.FromContext(r.Context()).Warn("write download failed", "error", err)
	}
}

// saveUploads copies each part into its own subdirectory of dir under its
// original base name, so detection sees the partner's filename and
// duplicate names do not collide. The returned paths keep upload order.
func saveUploads(dir string, headers []*multipart.FileHeader, maxSize int64) ([]string, error) {
	paths := make([]string, len(headers))
	for i, fh := range headers {
		if fh.Size > maxSize {
			return nil, fmt.Errorf("%s: %w", fh.Filename, errFileTooLarge)
		}
		paths[i] = filepath.Join(dir, strconv.Itoa(i), uploadName(fh.Filename))
	}

	var g errgroup.Group
	g.SetLimit(saveParallelism)
	for i, fh := range headers {
		g.Go(func() error {
			if err := os.Mkdir(filepath.Dir(paths[i]), 0o700); err != nil {
				return fmt.Errorf("create upload dir: %w", err)
			}
			return saveUpload(paths[i], fh, maxSize)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func saveUpload(path string, fh *multipart.FileHeader, maxSize int64) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save upload %s: %w", fh.Filename, err)
	}

	n, err := io.Copy(dst, io.LimitReader(src, maxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("save upload %s: %w", fh.Filename, err)
	}
	if n > maxSize {
		return fmt.Errorf("%s: %w", fh.Filename, errFileTooLarge)
	}
	return nil
}

// uploadName reduces a client-supplied filename to a safe base name.
// Browsers on Windows may send full paths with backslashes.
func uploadName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "upload"
	}
	return base
}
