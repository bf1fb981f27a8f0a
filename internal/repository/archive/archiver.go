package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"StockPull/internal/domain/models"
)

// FileArchiver stores raw aggregates under <dir>/<TICKER>/.
type FileArchiver struct {
	dir   string
	saver Saver
}

func NewFileArchiver(dir string, saver Saver) *FileArchiver {
	return &FileArchiver{dir: dir, saver: saver}
}

// Archive writes aggs to <dir>/<TICKER>/<ticker>_<mult><unit>_<from>_<to>.<ext>
// and returns the file path.
func (a *FileArchiver) Archive(ctx context.Context, req models.AggsRequest, aggs []models.Aggregate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ticker := strings.ToUpper(req.Ticker)
	dir := filepath.Join(a.dir, ticker)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("archive mkdir: %w", err)
	}

	name := fmt.Sprintf("%s_%d%s_%s_%s.%s",
		strings.ToLower(ticker), req.Multiplier, req.Interval, req.From, req.To, a.saver.Extension())
	path := filepath.Join(dir, name)
	if err := a.saver.Save(aggs, path); err != nil {
		return "", fmt.Errorf("archive %s: %w", path, err)
	}
	return path, nil
}
