package batch

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
)

// Manifest is the index written next to the rendered previews.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Generated time.Time `json:"generated"`
	Total     int       `json:"total"`
	Failed    int       `json:"failed"`
	Models    []Result  `json:"models"`
}

// NewRunID returns a fresh identifier for a batch run.
func NewRunID() uuid.UUID {
	return uuid.New()
}

// WriteManifest writes the manifest for results to path.
func WriteManifest(path string, runID uuid.UUID, results []Result) error {
	m := Manifest{
		RunID:     runID.String(),
		Generated: time.Now().UTC(),
		Total:     len(results),
		Models:    results,
	}
	for _, r := range results {
		if !r.Success {
			m.Failed++
		}
	}
	if m.Models == nil {
		m.Models = []Result{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return nil, err
	}
	return &m, nil
}
