package models

import "sort"

// Reserved labels that never come from the classification model.
const (
	LabelUnknown = "Unknown"
	LabelNoText  = "No text extracted"
	LabelError   = "Error"
)

// ScanResult is one row of the scan report, produced once per leaf file.
//
// Label is nil when the classifier could not produce a usable ranking; it is
// written as JSON null so that case stays distinct from LabelUnknown.
type ScanResult struct {
	FilePath string  `json:"file_path"`
	Label    *string `json:"label"`
	Score    float64 `json:"score"`
}

// NewScanResult builds a result carrying a concrete label.
func NewScanResult(path, label string, score float64) ScanResult {
	return ScanResult{FilePath: path, Label: &label, Score: score}
}

// LabelText returns the label, or "" when none was assigned.
func (r ScanResult) LabelText() string {
	if r.Label == nil {
		return ""
	}
	return *r.Label
}

// LabelCount aggregates results sharing one label.
type LabelCount struct {
	Label    string
	Files    int
	AvgScore float64
}

// Summarize groups results by label, most frequent first (ties by label).
// Results without a label are grouped under "".
func Summarize(results []ScanResult) []LabelCount {
	idx := map[string]int{}
	var out []LabelCount
	for _, r := range results {
		l := r.LabelText()
		i, ok := idx[l]
		if !ok {
			i = len(out)
			idx[l] = i
			out = append(out, LabelCount{Label: l})
		}
		out[i].Files++
		out[i].AvgScore += r.Score
	}
	for i := range out {
		out[i].AvgScore /= float64(out[i].Files)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Files != out[b].Files {
			return out[a].Files > out[b].Files
		}
		return out[a].Label < out[b].Label
	})
	return out
}
