package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/modsim/internal/dynamo"
)

type ExportData struct {
	Name       string               `json:"name"`
	Integrator string               `json:"integrator"`
	Steps      int                  `json:"steps"`
	Rejected   int                  `json:"rejected"`
	Columns    []string             `json:"columns"`
	Times      []float64            `json:"times"`
	Series     map[string][]float64 `json:"series"`
	Metrics    map[string]float64   `json:"metrics,omitempty"`
	Notes      []string             `json:"notes,omitempty"`
}

func NewExportData(name string, result *dynamo.Result, metrics map[string]float64) ExportData {
	data := ExportData{
		Name:       name,
		Integrator: result.Integrator,
		Steps:      result.StepsTaken,
		Rejected:   result.Rejected,
		Columns:    result.Columns,
		Times:      result.Times,
		Series:     make(map[string][]float64, len(result.Columns)),
		Metrics:    metrics,
		Notes:      result.Notes,
	}
	for _, c := range result.Columns {
		data.Series[c], _ = result.Column(c)
	}
	return data
}

// WriteJSON encodes data as indented JSON.
func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func ExportJSONStdout(data ExportData) error {
	return WriteJSON(os.Stdout, data)
}
