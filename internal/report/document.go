package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pable/go-cs-positions/internal/model"
)

// Metadata describes the analysed source.
type Metadata struct {
	SourceID    string  `json:"source_id"`
	TotalRounds int     `json:"total_rounds"`
	MapName     string  `json:"map_name"`
	Region      string  `json:"region"`
	TickRate    float64 `json:"tick_rate"`
}

// Document is the JSON artifact consumed by the visualization front end.
type Document struct {
	Metadata  Metadata             `json:"metadata"`
	Rounds    []model.RoundResult  `json:"rounds"`
	Aggregate model.AggregateStats `json:"aggregate"`
}

// NewDocument assembles the output document.
func NewDocument(meta Metadata, rounds []model.RoundResult, agg model.AggregateStats) Document {
	if rounds == nil {
		rounds = []model.RoundResult{}
	}
	if agg.PositionStats == nil {
		agg.PositionStats = []model.RegionStat{}
	}
	return Document{Metadata: meta, Rounds: rounds, Aggregate: agg}
}

// WriteDocument writes doc as indented JSON. The file is written next to
// path and renamed into place, so a failed run leaves no partial output.
func WriteDocument(path string, doc Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// ReadDocument loads a document written by WriteDocument.
func ReadDocument(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
