package archive

import (
	"encoding/csv"
	"os"
	"strconv"

	"StockPull/internal/domain/models"
)

// CSVSaver writes a header row t,o,h,l,c,v,vw,n. Missing optional fields
// are empty cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(aggs []models.Aggregate, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t", "o", "h", "l", "c", "v", "vw", "n"}); err != nil {
		return err
	}
	for _, a := range aggs {
		vw, n := "", ""
		if a.VWAP != nil {
			vw = floatStr(*a.VWAP)
		}
		if a.Transactions != nil {
			n = strconv.FormatInt(*a.Transactions, 10)
		}
		if err := w.Write([]string{
			strconv.FormatInt(a.Timestamp, 10),
			floatStr(a.Open),
			floatStr(a.High),
			floatStr(a.Low),
			floatStr(a.Close),
			floatStr(a.Volume),
			vw,
			n,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
