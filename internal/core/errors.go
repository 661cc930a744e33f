package core

import (
	"errors"
	"io/fs"
	"strings"
)

// Per-file and batch errors. The message text is what users see, so these
// strings are written in the report language and surfaced verbatim.
var (
	// ErrUnsupportedExtension: the file is not .xls or .xlsx.
	ErrUnsupportedExtension = errors.New("지원하지 않는 파일 형식입니다(.xls/.xlsx)")

	// ErrUndetectedFormat: the file name matches no partner naming convention.
	ErrUndetectedFormat = errors.New("서점 자동 감지 실패(파일명에 '예스24'/'교보'/'알라딘' 포함 권장).")

	// ErrUnsupportedPartnerFormat: the partner only exports daily totals,
	// so a structurally valid file still yields no per-book records.
	ErrUnsupportedPartnerFormat = errors.New("알라딘 파일은 일자별 집계만 있어 도서별 처리 불가.\n도서별 상세 정산서가 필요합니다.")

	// ErrEmptyResult: a batch finished with zero records. Reported once per
	// batch, never per file.
	ErrEmptyResult = errors.New("처리 가능한 데이터가 없습니다.")

	// ErrBatchCancelled marks files skipped because the batch context ended
	// before they started.
	ErrBatchCancelled = errors.New("작업이 취소되어 처리하지 않았습니다")

	// ErrAccumulatorSealed is returned by Append after the batch completed.
	ErrAccumulatorSealed = errors.New("accumulator is sealed: start a new batch")
)

// storePrefix is the short partner name used in error messages.
func storePrefix(s Store) string {
	switch s {
	case StoreKyobo:
		return "교보"
	case "":
		return ""
	default:
		return string(s)
	}
}

// MissingColumnsError lists every required column that could not be
// resolved after normalization and synonym lookup.
type MissingColumnsError struct {
	Store   Store
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	list := strings.Join(e.Missing, ", ")
	switch e.Store {
	case "":
		return "누락 컬럼: " + list
	case StoreKyobo:
		return storePrefix(e.Store) + " 형식 컬럼 누락: " + list
	default:
		return storePrefix(e.Store) + " 형식 누락 컬럼: " + list
	}
}

// HeaderError reports that no header offset produced a usable table.
// Err is the last underlying failure.
type HeaderError struct {
	Store   Store
	Offsets []int
	Err     error
}

func (e *HeaderError) Error() string {
	msg := "형식 해석 실패"
	if p := storePrefix(e.Store); p != "" {
		msg = p + " " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *HeaderError) Unwrap() error { return e.Err }

// ReadError wraps a lower-level failure (corrupt container, permission,
// I/O) met while reading or extracting a partner file.
type ReadError struct {
	Store Store
	Err   error
}

func (e *ReadError) Error() string {
	msg := "처리 오류"
	if p := storePrefix(e.Store); p != "" {
		msg = p + " " + msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// ExportError wraps a failure to write the consolidated report.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Retryable() {
		return "파일이 열려 있어 저장할 수 없습니다. 닫은 뒤 다시 시도하세요. (" + e.Path + ")"
	}
	return "파일 저장에 실패했습니다: " + e.Err.Error()
}

func (e *ExportError) Unwrap() error { return e.Err }

// Retryable reports whether the target is locked or not writable, a state
// the user can fix by closing the file and trying again.
func (e *ExportError) Retryable() bool {
	if errors.Is(e.Err, fs.ErrPermission) {
		return true
	}
	// Windows reports files held open by Excel as a sharing violation,
	// which does not map to fs.ErrPermission.
	msg := strings.ToLower(e.Err.Error())
	return strings.Contains(msg, "used by another process") ||
		strings.Contains(msg, "sharing violation")
}
