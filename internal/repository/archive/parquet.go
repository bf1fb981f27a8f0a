package archive

import (
	"github.com/parquet-go/parquet-go"

	"StockPull/internal/domain/models"
)

// ParquetSaver writes one parquet file; vw and n are optional columns.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(aggs []models.Aggregate, path string) error {
	return parquet.WriteFile(path, aggs)
}
