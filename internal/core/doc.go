// Package core provides the settlement parsing and normalization engine.
//
// This package turns partner settlement spreadsheets into one canonical
// record schema, independent of any UI or transport layer. It is used by
// the CLI, the HTTP handlers and tests without modification.
//
// # Architecture
//
// The package is organized around a closed set of partner formats:
//
//   - Format registry: [Detect] picks a partner from the file name.
//   - Adapters: one per partner, each turning a workbook into [Record]s.
//     YES24 uses its header row as is; Kyobo goes through [LocateHeader]
//     and [MapColumns] with the synonym table; Aladin is recognized only
//     to explain why it cannot be processed.
//   - Normalization: [ParseNumber], [NormalizeInt] and [NormalizeDecimal]
//     read the loosely formatted numbers found in partner exports.
//   - Batches: [Processor.RunBatch] processes files in order into a fresh
//     [Accumulator] and returns the [UnifiedTable].
//
// # Batch Flow
//
//  1. Caller passes file paths to [Processor.RunBatch] (or [Service.Settle]
//     for concurrent callers)
//  2. Each file is detected, read and mapped; its records are appended in
//     one call, only if the whole file succeeded
//  3. Per-file outcomes are reported through the progress callback
//  4. The caller exports the table with [Save] and prints [FormatSummary]
//
// # Error Handling
//
// Failures are reported per file and never abort a batch. Technical errors
// are mapped to user-facing messages with [MapError]; see error_messages.go
// for the code catalogue.
package core
