// Package models defines data structures shared by the run client.
package models

// DetectionMethod selects the clone detector on the runner.
type DetectionMethod string

const (
	DetectionNormal DetectionMethod = "normal"
	DetectionTKS    DetectionMethod = "tks"
	DetectionRNR    DetectionMethod = "rnr"
)

// Valid reports whether m is one of the known detection methods.
func (m DetectionMethod) Valid() bool {
	switch m {
	case DetectionNormal, DetectionTKS, DetectionRNR:
		return true
	}
	return false
}

// ComodMethod selects how co-modification is counted.
type ComodMethod string

const (
	ComodCloneSet  ComodMethod = "clone_set"
	ComodClonePair ComodMethod = "clone_pair"
)

// Valid reports whether m is one of the known co-modification methods.
func (m ComodMethod) Valid() bool {
	return m == ComodCloneSet || m == ComodClonePair
}

// AnalysisMethod selects how target commits are chosen.
type AnalysisMethod string

const (
	AnalysisMergeCommit AnalysisMethod = "merge_commit"
	AnalysisTag         AnalysisMethod = "tag"
	AnalysisFrequency   AnalysisMethod = "frequency"
)

// Valid reports whether m is one of the known analysis methods.
func (m AnalysisMethod) Valid() bool {
	switch m {
	case AnalysisMergeCommit, AnalysisTag, AnalysisFrequency:
		return true
	}
	return false
}

// AnalysisParameters is the request body of POST /api/run.
//
// Numeric and boolean fields are pointers: nil means the input control did not
// hold a usable value (non-numeric text, empty field). The validator reports
// those; they are never sent. Field order matches the wire order.
type AnalysisParameters struct {
	URL                string          `json:"url"`
	DetectionMethod    DetectionMethod `json:"detection_method"`
	TKS                *int            `json:"tks"`
	RNR                *float64        `json:"rnr"`
	MinTokens          *int            `json:"min_tokens"`
	ImportFilter       *bool           `json:"import_filter"`
	ForceRecompute     *bool           `json:"force_recompute"`
	ComodMethod        ComodMethod     `json:"comod_method"`
	AnalysisMethod     AnalysisMethod  `json:"analysis_method"`
	AnalysisFrequency  *int            `json:"analysis_frequency"`
	SearchDepth        *int            `json:"search_depth"`
	MaxAnalyzedCommits *int            `json:"max_analyzed_commits"`
}

// Unlimited is the sentinel for search depth and max analyzed commits.
const Unlimited = -1

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
