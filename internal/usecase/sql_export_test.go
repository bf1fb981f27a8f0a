package usecase

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPull/internal/domain/models"
)

type fakeRows struct {
	records []models.StockRecord
	err     error
	where   string
}

func (f *fakeRows) Count(_ context.Context, where string) (int64, error) {
	f.where = where
	return int64(len(f.records)), nil
}

func (f *fakeRows) Each(_ context.Context, _ string, fn func(models.StockRecord) error) error {
	for _, r := range f.records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return f.err
}

func fixedExporter(rows *fakeRows) *SQLExporter {
	e := NewSQLExporter(rows, nil)
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

const wantDump = `-- PostgreSQL dump from stocks database
-- Generated at: 2024-05-01T12:00:00Z
-- Total records: 2
-- 
-- Usage: psql -U username -d database -f stocks_dump.sql

-- Create table if not exists
CREATE TABLE IF NOT EXISTS stocks (
    id SERIAL PRIMARY KEY,
    ticker VARCHAR(10) NOT NULL,
    time INTEGER NOT NULL,
    high FLOAT NOT NULL,
    low FLOAT NOT NULL,
    avg FLOAT NOT NULL,
    sale FLOAT NOT NULL,
    meta JSONB
);

-- Create indexes
CREATE INDEX IF NOT EXISTS idx_stocks_ticker ON stocks(ticker);
CREATE INDEX IF NOT EXISTS idx_stocks_time ON stocks(time);

-- Begin transaction
BEGIN;

INSERT INTO stocks (ticker, time, high, low, avg, sale, meta) VALUES
    ('AAPL', 1700000000, 1.5, 1.2, 1.35, 1.4, '{"open":1.3}'::jsonb),
    ('O''TICK', 1700000060, 2, 1, 1.5, 1.8, NULL);


-- Commit transaction
COMMIT;

-- Export completed: 2 records
`

func TestExportLayout(t *testing.T) {
	rows := &fakeRows{records: []models.StockRecord{
		{ID: 1, Ticker: "AAPL", Time: 1700000000, High: 1.5, Low: 1.2, Avg: 1.35, Sale: 1.4, Meta: models.Meta{"open": models.Float(1.3)}},
		{ID: 2, Ticker: "O'TICK", Time: 1700000060, High: 2, Low: 1, Avg: 1.5, Sale: 1.8},
	}}
	var buf bytes.Buffer
	n, err := fixedExporter(rows).Export(context.Background(), &buf, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, wantDump, buf.String())
}

func TestExportZeroRows(t *testing.T) {
	rows := &fakeRows{}
	var buf bytes.Buffer
	n, err := fixedExporter(rows).Export(context.Background(), &buf, ExportOptions{Where: "ticker = 'NONE'"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
	assert.Equal(t, "ticker = 'NONE'", rows.where)
}

func TestExportBatches(t *testing.T) {
	rows := &fakeRows{}
	for i := 0; i < 5; i++ {
		rows.records = append(rows.records, models.StockRecord{ID: int64(i + 1), Ticker: "MSFT", Time: int64(i), High: 1, Low: 1, Avg: 1, Sale: 1})
	}
	var buf bytes.Buffer
	n, err := fixedExporter(rows).Export(context.Background(), &buf, ExportOptions{Table: "public.bars", BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "INSERT INTO public.bars "))
	assert.Equal(t, 3, strings.Count(out, "1, 1, 1, 1, NULL);\n"), "each INSERT ends once")
	assert.Contains(t, out, "CREATE INDEX IF NOT EXISTS idx_bars_ticker ON public.bars(ticker);")
	assert.Contains(t, out, "-- Export completed: 5 records")
}

func TestExportRejectsBadTableName(t *testing.T) {
	rows := &fakeRows{records: []models.StockRecord{{Ticker: "A"}}}
	for _, name := range []string{"stocks; DROP TABLE x", "1stocks", "a.b.c", "st-ocks"} {
		_, err := fixedExporter(rows).Export(context.Background(), &bytes.Buffer{}, ExportOptions{Table: name})
		assert.Error(t, err, name)
	}
}

func TestExportPropagatesReadError(t *testing.T) {
	rows := &fakeRows{records: []models.StockRecord{{Ticker: "A", High: 1, Low: 1}}, err: errors.New("conn lost")}
	_, err := fixedExporter(rows).Export(context.Background(), &bytes.Buffer{}, ExportOptions{})
	assert.ErrorContains(t, err, "conn lost")
}

func TestSQLFloat(t *testing.T) {
	assert.Equal(t, "'NaN'", sqlFloat(math.NaN()))
	assert.Equal(t, "'Infinity'", sqlFloat(math.Inf(1)))
	assert.Equal(t, "'-Infinity'", sqlFloat(math.Inf(-1)))
	assert.Equal(t, "0.1", sqlFloat(0.1))
	assert.Equal(t, "189.98", sqlFloat(189.98))
	assert.Equal(t, "1e-07", sqlFloat(1e-7))
}

func TestExportRoundTrip(t *testing.T) {
	src := []models.StockRecord{
		{ID: 1, Ticker: "O'TICK", Time: 1, High: 10.125, Low: 9.5, Avg: 9.8125, Sale: 10, Meta: models.Meta{"name": models.Str("it's"), "volume": models.Int(42)}},
		{ID: 2, Ticker: "AAPL", Time: 2, High: 0.1, Low: 0.01, Avg: 0.055, Sale: 0.07},
		{ID: 3, Ticker: "BRK.B", Time: 3, High: 412.31, Low: 410, Avg: 411.155, Sale: 411.9, Meta: models.Meta{"note": models.Str("a,b (c)"), "vwap": models.Null()}},
	}
	var buf bytes.Buffer
	_, err := fixedExporter(&fakeRows{records: src}).Export(context.Background(), &buf, ExportOptions{BatchSize: 2})
	require.NoError(t, err)

	tuples := parseTuples(t, buf.String())
	require.Len(t, tuples, len(src))
	for i, fields := range tuples {
		want := src[i]
		require.Len(t, fields, 7)
		assert.Equal(t, want.Ticker, fields[0])
		assert.Equal(t, strconv.FormatInt(want.Time, 10), fields[1])
		for j, f := range []float64{want.High, want.Low, want.Avg, want.Sale} {
			got, err := strconv.ParseFloat(fields[2+j], 64)
			require.NoError(t, err)
			assert.Equal(t, f, got)
		}
		if len(want.Meta) == 0 {
			assert.Equal(t, "NULL", fields[6])
			continue
		}
		wantMeta, err := want.Meta.JSON()
		require.NoError(t, err)
		assert.Equal(t, string(wantMeta), fields[6])
	}
}

// parseTuples extracts the value tuples of every INSERT, un-escaping
// quoted literals and dropping ::jsonb casts.
func parseTuples(t *testing.T, dump string) [][]string {
	t.Helper()
	var out [][]string
	for _, line := range strings.Split(dump, "\n") {
		if !strings.HasPrefix(line, "    (") {
			continue
		}
		body := strings.TrimPrefix(line, "    (")
		body = strings.TrimRight(body, ",;")
		require.True(t, strings.HasSuffix(body, ")"), line)
		body = strings.TrimSuffix(body, ")")

		var (
			fields []string
			cur    strings.Builder
			inStr  bool
		)
		for i := 0; i < len(body); i++ {
			c := body[i]
			switch {
			case inStr && c == '\'' && i+1 < len(body) && body[i+1] == '\'':
				cur.WriteByte('\'')
				i++
			case c == '\'':
				inStr = !inStr
			case !inStr && c == ',':
				fields = append(fields, strings.TrimSuffix(strings.TrimSpace(cur.String()), "::jsonb"))
				cur.Reset()
			default:
				cur.WriteByte(c)
			}
		}
		fields = append(fields, strings.TrimSuffix(strings.TrimSpace(cur.String()), "::jsonb"))
		out = append(out, fields)
	}
	return out
}
