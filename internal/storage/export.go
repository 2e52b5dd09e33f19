package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run         RunMetadata `json:"run"`
	History     [][]float64 `json:"history"`
	Wavelengths []float64   `json:"wavelengths"`
	Spectrum    []float64   `json:"spectrum"`
}

// Export gathers everything stored for a run.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return nil, err
	}
	wavelengths, spectrum, err := s.LoadSpectrum(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{
		Run:         *meta,
		History:     history,
		Wavelengths: wavelengths,
		Spectrum:    spectrum,
	}, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}
