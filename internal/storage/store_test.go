package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/radtrans/internal/config"
	"github.com/san-kum/radtrans/internal/equilibrium"
)

func runToy(t *testing.T) (*config.Config, *config.Setup, *equilibrium.Result) {
	t.Helper()
	cfg := config.GetPreset("toy")
	cfg.Solver.MaxIterations = 3

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	setup, err := cfg.Build(logger)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	s, err := setup.NewSolver()
	if err != nil {
		t.Fatalf("solver failed: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	res.Metrics["custom"] = 1.5
	return cfg, setup, res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg, setup, res := runToy(t)
	runID, err := st.Save(cfg, setup.Column, setup.Grid, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "toy" {
		t.Errorf("expected name 'toy', got '%s'", meta.Name)
	}
	if meta.Iterations != res.Iterations {
		t.Errorf("expected %d iterations, got %d", res.Iterations, meta.Iterations)
	}
	if meta.Status != res.Status.String() {
		t.Errorf("expected status %s, got %s", res.Status, meta.Status)
	}
	if meta.Metrics["custom"] != 1.5 {
		t.Errorf("expected custom metric 1.5, got %f", meta.Metrics["custom"])
	}
	if meta.OutgoingFlux <= 0 {
		t.Errorf("expected positive outgoing flux, got %f", meta.OutgoingFlux)
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(history) != len(res.History) {
		t.Fatalf("expected %d history rows, got %d", len(res.History), len(history))
	}
	for k := range history {
		for i := range history[k] {
			if history[k][i] != res.History[k][i] {
				t.Errorf("history[%d][%d]: expected %v, got %v", k, i, res.History[k][i], history[k][i])
			}
		}
	}

	wavelengths, flux, err := st.LoadSpectrum(runID)
	if err != nil {
		t.Fatalf("load spectrum failed: %v", err)
	}
	if len(wavelengths) != setup.Grid.Len() || len(flux) != setup.Grid.Len() {
		t.Fatalf("expected %d spectrum points, got %d/%d", setup.Grid.Len(), len(wavelengths), len(flux))
	}
	if wavelengths[0] != setup.Grid[0] {
		t.Errorf("expected first wavelength %v, got %v", setup.Grid[0], wavelengths[0])
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loaded.Opacity.Kappa != cfg.Opacity.Kappa {
		t.Errorf("expected kappa %v, got %v", cfg.Opacity.Kappa, loaded.Opacity.Kappa)
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list on missing dir failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	cfg, setup, res := runToy(t)
	for i := 0; i < 2; i++ {
		if _, err := st.Save(cfg, setup.Column, setup.Grid, res); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[1].Timestamp.Before(runs[0].Timestamp) {
		t.Error("expected runs sorted oldest first")
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	cfg, setup, res := runToy(t)
	runID, err := st.Save(cfg, setup.Column, setup.Grid, res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := st.Export(runID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Run.ID != runID {
		t.Errorf("expected run %s, got %s", runID, decoded.Run.ID)
	}
	if len(decoded.History) != res.Iterations+1 {
		t.Errorf("expected %d history rows, got %d", res.Iterations+1, len(decoded.History))
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(path, data); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}

	if _, err := st.Export("missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
