package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadAnalysisFile reads a JSON file containing an array of case analyses,
// as produced by the offline analysis tooling.
func LoadAnalysisFile(path string) ([]*CaseAnalysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening analysis file: %w", err)
	}
	defer f.Close()

	return ReadAnalyses(f)
}

// ReadAnalyses decodes an array of case analyses from r.
func ReadAnalyses(r io.Reader) ([]*CaseAnalysis, error) {
	var analyses []*CaseAnalysis
	if err := json.NewDecoder(r).Decode(&analyses); err != nil {
		return nil, fmt.Errorf("decoding analyses: %w", err)
	}
	return analyses, nil
}
