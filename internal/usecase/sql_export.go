package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"StockPull/internal/domain/models"
	drepo "StockPull/internal/domain/repository"
	"StockPull/pkg/logger"
	"StockPull/pkg/util"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ExportOptions selects the rows and target table of a SQL dump.
type ExportOptions struct {
	Table     string
	Where     string
	BatchSize int
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.Table == "" {
		o.Table = "stocks"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	return o
}

// SQLExporter writes stored rows as a PostgreSQL script: table and index
// DDL, then multi-row INSERTs inside one transaction.
type SQLExporter struct {
	rows drepo.RowSource
	l    *logger.Logger
	now  func() time.Time
}

func NewSQLExporter(rows drepo.RowSource, l *logger.Logger) *SQLExporter {
	if l == nil {
		l = logger.Nop()
	}
	return &SQLExporter{rows: rows, l: l, now: time.Now}
}

// Export returns the number of rows written. When no row matches nothing
// is written to w.
func (e *SQLExporter) Export(ctx context.Context, w io.Writer, opts ExportOptions) (int64, error) {
	opts = opts.withDefaults()
	if !tableNameRe.MatchString(opts.Table) {
		return 0, fmt.Errorf("invalid table name %q", opts.Table)
	}
	if opts.Where != "" {
		e.l.Info("Applying filter: WHERE " + opts.Where)
	}

	total, err := e.rows.Count(ctx, opts.Where)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	e.l.Info("Total records to export: " + util.Thousands(total))
	if total == 0 {
		e.l.Warn("No records found to export")
		return 0, nil
	}

	bw := bufio.NewWriter(w)
	writeHeader(bw, opts.Table, total, e.now())

	var written int64
	batch := make([]models.StockRecord, 0, opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := writeInsert(bw, opts.Table, batch); err != nil {
			return err
		}
		written += int64(len(batch))
		batch = batch[:0]
		e.l.Debug(fmt.Sprintf("Written %s records...", util.Thousands(written)))
		return nil
	}

	err = e.rows.Each(ctx, opts.Where, func(r models.StockRecord) error {
		batch = append(batch, r)
		if len(batch) >= opts.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("export rows: %w", err)
	}
	if err := flush(); err != nil {
		return written, err
	}

	fmt.Fprintf(bw, "\n-- Commit transaction\nCOMMIT;\n\n-- Export completed: %s records\n", util.Thousands(written))
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("write dump: %w", err)
	}
	return written, nil
}

func writeHeader(w io.Writer, table string, total int64, at time.Time) {
	base := table[strings.LastIndexByte(table, '.')+1:]
	fmt.Fprintf(w, "-- PostgreSQL dump from stocks database\n")
	fmt.Fprintf(w, "-- Generated at: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(w, "-- Total records: %s\n", util.Thousands(total))
	fmt.Fprintf(w, "-- \n")
	fmt.Fprintf(w, "-- Usage: psql -U username -d database -f stocks_dump.sql\n\n")

	fmt.Fprintf(w, "-- Create table if not exists\n")
	fmt.Fprintf(w, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	fmt.Fprintf(w, "    id SERIAL PRIMARY KEY,\n")
	fmt.Fprintf(w, "    ticker VARCHAR(10) NOT NULL,\n")
	fmt.Fprintf(w, "    time INTEGER NOT NULL,\n")
	fmt.Fprintf(w, "    high FLOAT NOT NULL,\n")
	fmt.Fprintf(w, "    low FLOAT NOT NULL,\n")
	fmt.Fprintf(w, "    avg FLOAT NOT NULL,\n")
	fmt.Fprintf(w, "    sale FLOAT NOT NULL,\n")
	fmt.Fprintf(w, "    meta JSONB\n")
	fmt.Fprintf(w, ");\n\n")

	fmt.Fprintf(w, "-- Create indexes\n")
	fmt.Fprintf(w, "CREATE INDEX IF NOT EXISTS idx_%s_ticker ON %s(ticker);\n", base, table)
	fmt.Fprintf(w, "CREATE INDEX IF NOT EXISTS idx_%s_time ON %s(time);\n\n", base, table)

	fmt.Fprintf(w, "-- Begin transaction\nBEGIN;\n\n")
}

// writeInsert emits one INSERT for the batch; the last tuple ends with ';'.
func writeInsert(w io.Writer, table string, batch []models.StockRecord) error {
	if _, err := fmt.Fprintf(w, "INSERT INTO %s (ticker, time, high, low, avg, sale, meta) VALUES\n", table); err != nil {
		return err
	}
	for i, r := range batch {
		meta, err := metaLiteral(r.Meta)
		if err != nil {
			return fmt.Errorf("row %d: %w", r.ID, err)
		}
		sep := ",\n"
		if i == len(batch)-1 {
			sep = ";\n"
		}
		_, err = fmt.Fprintf(w, "    (%s, %d, %s, %s, %s, %s, %s)%s",
			quote(r.Ticker), r.Time, sqlFloat(r.High), sqlFloat(r.Low), sqlFloat(r.Avg), sqlFloat(r.Sale), meta, sep)
		if err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func metaLiteral(m models.Meta) (string, error) {
	if len(m) == 0 {
		return "NULL", nil
	}
	b, err := m.JSON()
	if err != nil {
		return "", fmt.Errorf("encode meta: %w", err)
	}
	return quote(string(b)) + "::jsonb", nil
}

// sqlFloat prints the shortest decimal that round-trips. PostgreSQL takes
// non-finite values only as quoted literals.
func sqlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "'NaN'"
	case math.IsInf(f, 1):
		return "'Infinity'"
	case math.IsInf(f, -1):
		return "'-Infinity'"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
