// Error Codes Reference
//
// This file defines user-facing error messages with codes for support
// reference. Users can quote the code when reporting a problem.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Unsupported extension: only .xls/.xlsx are read
//	          Action: Save the partner file as an Excel workbook
//	FILE002 - Unreadable file: the container could not be opened or decoded
//	          Action: Re-download the settlement file from the partner portal
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Undetected format: file name has no partner marker
//	         Action: Include 예스24, 교보 or 알라딘 in the file name
//	FMT002 - Unsupported partner format: partner exports daily totals only
//	         Action: Request the per-book settlement statement
//	FMT003 - Header not found: no header row candidate was usable
//	         Action: Check that the file is an unmodified partner export
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Missing columns: required columns are absent after synonym lookup
//	         Action: Check the header row of the file
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Empty result: no file in the batch produced records
//	         Action: Review the per-file errors above
//	RUN002 - Busy: too many batches are running
//	         Action: Wait a moment and try again
//	RUN003 - Cancelled: the batch was cancelled before this file
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Target locked: the output file is open in another program
//	         Action: Close the file and retry (retryable)
//	EXP002 - Export failed: the report could not be written
//
// # Default Error (ERR000)
//
// Fallback when no rule matches. Check the application log for the
// technical error.
//
// # Matching
//
// Rules are checked in order with errors.Is / errors.As, so wrapped errors
// resolve to the same code as the sentinel they wrap. The first matching
// rule wins.

package core

import (
	"context"
	"errors"
	"fmt"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorRule matches an error and builds its user message.
type errorRule struct {
	match func(error) bool
	msg   func(error) UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func fixed(code, message, action string) func(error) UserMessage {
	return func(error) UserMessage {
		return UserMessage{Message: message, Action: action, Code: code}
	}
}

// verbatim keeps the error's own text as the message.
func verbatim(code, action string) func(error) UserMessage {
	return func(err error) UserMessage {
		return UserMessage{Message: err.Error(), Action: action, Code: code}
	}
}

var errorRules = []errorRule{
	{
		match: is(ErrUnsupportedExtension),
		msg:   verbatim("FILE001", "파트너 파일을 엑셀(.xls/.xlsx) 형식으로 저장하세요"),
	},
	{
		match: is(ErrUndetectedFormat),
		msg:   verbatim("FMT001", "파일명에 예스24, 교보 또는 알라딘을 포함하세요"),
	},
	{
		match: is(ErrUnsupportedPartnerFormat),
		msg:   verbatim("FMT002", "파트너에 도서별 상세 정산서를 요청하세요"),
	},
	{
		match: func(err error) bool {
			var e *HeaderError
			return errors.As(err, &e)
		},
		msg: verbatim("FMT003", "파트너 원본 파일인지 확인하세요"),
	},
	{
		match: func(err error) bool {
			var e *MissingColumnsError
			return errors.As(err, &e)
		},
		msg: verbatim("COL001", "파일의 머리글 행을 확인하세요"),
	},
	{
		match: func(err error) bool {
			var e *ExportError
			return errors.As(err, &e) && e.Retryable()
		},
		msg: verbatim("EXP001", "파일을 닫은 뒤 다시 시도하세요"),
	},
	{
		match: func(err error) bool {
			var e *ExportError
			return errors.As(err, &e)
		},
		msg: verbatim("EXP002", "저장 위치와 디스크 공간을 확인하세요"),
	},
	{
		match: is(ErrEmptyResult),
		msg:   verbatim("RUN001", "파일별 오류를 확인하세요"),
	},
	{
		match: is(ErrTooManyBatches),
		msg:   fixed("RUN002", "다른 정산 작업이 진행 중입니다", "잠시 후 다시 시도하세요"),
	},
	{
		match: func(err error) bool {
			return errors.Is(err, ErrBatchCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		msg: fixed("RUN003", "작업이 취소되었습니다", "다시 시도하세요"),
	},
	{
		match: func(err error) bool {
			var e *ReadError
			return errors.As(err, &e)
		},
		msg: verbatim("FILE002", "파트너 포털에서 정산 파일을 다시 내려받으세요"),
	},
}

// defaultMessage is returned when no specific rule matches.
var defaultMessage = UserMessage{
	Message: "예기치 않은 오류가 발생했습니다",
	Action:  "다시 시도하거나 관리자에게 문의하세요",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
// Returns an empty UserMessage when err is nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, r := range errorRules {
		if r.match(err) {
			return r.msg(err)
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known rule rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
