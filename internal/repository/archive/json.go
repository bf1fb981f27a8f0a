package archive

import (
	"encoding/json"
	"os"

	"StockPull/internal/domain/models"
)

// JSONSaver writes an indented JSON array using the provider field names.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(aggs []models.Aggregate, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(aggs); err != nil {
		return err
	}
	return f.Close()
}
