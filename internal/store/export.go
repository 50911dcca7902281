package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/san-kum/partsim/internal/experiment"
	"github.com/san-kum/partsim/internal/export"
)

const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
	FormatSVG     = "svg"
)

type ExportData struct {
	Name    string               `json:"name" msgpack:"name"`
	Seed    int64                `json:"seed" msgpack:"seed"`
	Steps   int                  `json:"steps" msgpack:"steps"`
	World   [2]float64           `json:"world" msgpack:"world"`
	Series  map[string][]float64 `json:"series" msgpack:"series"`
	Metrics map[string]float64   `json:"metrics" msgpack:"metrics"`
	Frames  []experiment.Frame   `json:"frames" msgpack:"frames"`
}

func NewExportData(result *experiment.Result) ExportData {
	return ExportData{
		Name:    result.Name,
		Seed:    result.Seed,
		Steps:   result.StepsTaken,
		World:   result.World,
		Series:  result.Series,
		Metrics: result.Metrics,
		Frames:  result.Frames,
	}
}

// Encode writes data to w in the given format.
func Encode(w io.Writer, format string, data ExportData) error {
	switch format {
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(data)
	case FormatSVG:
		return export.WriteTrails(w, data.Frames, data.World[0], data.World[1])
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}

// Decode reads data written by Encode. SVG output cannot be read back.
func Decode(r io.Reader, format string) (ExportData, error) {
	var data ExportData
	switch format {
	case FormatJSON, "":
		return data, json.NewDecoder(r).Decode(&data)
	case FormatMsgpack:
		return data, msgpack.NewDecoder(r).Decode(&data)
	default:
		return data, fmt.Errorf("unknown export format: %s", format)
	}
}

// Export writes result to path, or to stdout when path is "-".
func Export(path, format string, result *experiment.Result) error {
	data := NewExportData(result)
	if path == "-" {
		return Encode(os.Stdout, format, data)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return Encode(file, format, data)
}
