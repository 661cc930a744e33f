// Command settle merges partner settlement workbooks into one report.
//
//	settle [-o out.xlsx|out.csv] [-summary-only] files...
//
// Each file is matched to its partner by filename. Per-file results and the
// per-store summary are printed to stdout; logs go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/JonMunkholm/settlement/internal/config"
	"github.com/JonMunkholm/settlement/internal/core"
	"github.com/JonMunkholm/settlement/internal/logging"
	"github.com/JonMunkholm/settlement/internal/metrics"
	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one batch and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("settle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "output path; .csv writes CSV, anything else XLSX")
	summaryOnly := fs.Bool("summary-only", false, "print results without writing a report")
	envFile := fs.String("env", "", "load settings from this .env file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: settle [-o out.xlsx|out.csv] [-summary-only] files...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if *envFile != "" {
		if err := godotenv.Overload(*envFile); err != nil {
			fmt.Fprintf(stderr, "load %s: %v\n", *envFile, err)
			return 1
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logging.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	procOpts, err := cfg.Settle.ProcessorOptions()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	reg := metrics.NewRegistry()
	procOpts.Observer = reg

	result := core.NewProcessor(procOpts).RunBatch(ctx, fs.Args(), nil)
	writeReport(stdout, result)

	if cfg.Settle.MetricsTextfile != "" {
		if err := reg.WriteTextfile(cfg.Settle.MetricsTextfile); err != nil {
			slog.Warn("write metrics textfile failed", "path", cfg.Settle.MetricsTextfile, "error", err)
		}
	}

	if result.Err != nil {
		return 1
	}
	if *summaryOnly {
		return 0
	}

	path := *output
	if path == "" {
		path = filepath.Join(cfg.Settle.OutputDir, core.DefaultExportName(time.Now()))
	}
	if err := core.Save(path, result.Table); err != nil {
		fmt.Fprintln(stdout, core.FormatUserError(err))
		slog.Error("export failed", "path", path, "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "저장 위치: %s\n", path)
	return 0
}

// writeReport prints one aligned line per file, the batch notice if any,
// and the per-store summary.
func writeReport(w io.Writer, b *core.BatchResult) {
	width := 0
	for _, r := range b.Results {
		width = max(width, runewidth.StringWidth(r.Name))
	}

	for _, r := range b.Results {
		name := runewidth.FillRight(r.Name, width)
		if r.Err != nil {
			fmt.Fprintf(w, "· %s: %s\n", name, r.Err)
			continue
		}
		fmt.Fprintf(w, "· %s: %d건 처리\n", name, r.Count)
	}

	if msg := b.Message(); msg != "" {
		fmt.Fprintln(w, msg)
	}
	if summary := core.FormatSummary(b.Table); summary != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, summary)
	}
}
