package archive

import (
	"fmt"
	"strings"

	"StockPull/internal/domain/models"
)

// Saver writes one file of raw aggregates.
type Saver interface {
	Save(aggs []models.Aggregate, path string) error
	Extension() string
}

// NewSaver returns the saver for format: csv, json or parquet.
func NewSaver(format string) (Saver, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}, nil
	case "json":
		return JSONSaver{}, nil
	case "parquet":
		return ParquetSaver{}, nil
	default:
		return nil, fmt.Errorf("archive: unsupported format %q (use csv, json or parquet)", format)
	}
}
