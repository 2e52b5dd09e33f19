package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/radtrans/internal/atmos"
	"github.com/san-kum/radtrans/internal/config"
	"github.com/san-kum/radtrans/internal/equilibrium"
)

const (
	metadataFile    = "metadata.json"
	configFile      = "config.yaml"
	temperatureFile = "temperatures.csv"
	spectrumFile    = "spectrum.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Timestamp         time.Time          `json:"timestamp"`
	Layers            int                `json:"layers"`
	Wavelengths       int                `json:"wavelengths"`
	Iterations        int                `json:"iterations"`
	Converged         bool               `json:"converged"`
	Status            string             `json:"status"`
	OutgoingFlux      float64            `json:"outgoing_flux"`
	Pressures         []float64          `json:"pressures"`
	FinalTemperatures []float64          `json:"final_temperatures"`
	MaxChange         []float64          `json:"max_change"`
	Metrics           map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the configuration, the
// temperature history and the final outgoing spectrum, and returns the run
// ID.
func (s *Store) Save(cfg *config.Config, col atmos.Column, grid atmos.WavelengthGrid, result *equilibrium.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	spectrum := result.OutgoingSpectrum()
	meta := RunMetadata{
		ID:                runID,
		Name:              cfg.Name,
		Timestamp:         now,
		Layers:            col.Len(),
		Wavelengths:       grid.Len(),
		Iterations:        result.Iterations,
		Converged:         result.Converged,
		Status:            result.Status.String(),
		Pressures:         col.Pressure,
		FinalTemperatures: result.Temperatures,
		MaxChange:         result.MaxChange,
		Metrics:           result.Metrics,
	}
	if spectrum != nil {
		meta.OutgoingFlux = grid.Bolometric(spectrum)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, temperatureFile), result.History); err != nil {
		return "", err
	}
	if err := writeSpectrum(filepath.Join(runDir, spectrumFile), grid, spectrum); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHistory(path string, history [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(history) > 0 {
		header := []string{"iteration"}
		for i := range history[0] {
			header = append(header, fmt.Sprintf("T%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for k, row := range history {
		rec := []string{strconv.Itoa(k)}
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSpectrum(path string, grid atmos.WavelengthGrid, flux []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"wavelength_m", "flux"}); err != nil {
		return err
	}
	for j, l := range grid {
		if j >= len(flux) {
			break
		}
		rec := []string{
			strconv.FormatFloat(l, 'g', -1, 64),
			strconv.FormatFloat(flux[j], 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig returns the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadHistory returns the temperature history of a run, one row per
// iteration starting with the initial profile.
func (s *Store) LoadHistory(runID string) ([][]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, temperatureFile))
	if err != nil {
		return nil, err
	}

	history := make([][]float64, 0, len(records))
	for _, rec := range records {
		row, err := parseFloats(rec[1:])
		if err != nil {
			return nil, fmt.Errorf("storage: %s: %w", temperatureFile, err)
		}
		history = append(history, row)
	}
	return history, nil
}

// LoadSpectrum returns the wavelengths [m] and the outgoing spectral flux
// of a run.
func (s *Store) LoadSpectrum(runID string) ([]float64, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, spectrumFile))
	if err != nil {
		return nil, nil, err
	}

	wavelengths := make([]float64, 0, len(records))
	flux := make([]float64, 0, len(records))
	for _, rec := range records {
		vals, err := parseFloats(rec)
		if err != nil || len(vals) != 2 {
			return nil, nil, fmt.Errorf("storage: %s: malformed record %v", spectrumFile, rec)
		}
		wavelengths = append(wavelengths, vals[0])
		flux = append(flux, vals[1])
	}
	return wavelengths, flux, nil
}

// readCSV returns the records after the header line.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
