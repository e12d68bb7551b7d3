// Package params holds the raw values of the analysis input controls and
// derives request parameters from them.
package params

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/msccatools/msccat-client/internal/models"
)

// Form is the current content of every input control, as text.
// A Form is mutable; AnalysisParameters derived from it are not.
type Form struct {
	URL                string
	DetectionMethod    string
	TKS                string
	RNR                string
	MinTokens          string
	ImportFilter       string
	ForceRecompute     string
	ComodMethod        string
	AnalysisMethod     string
	AnalysisFrequency  string
	SearchDepth        string
	MaxAnalyzedCommits string
}

// DefaultForm returns the controls' initial values.
func DefaultForm() Form {
	return Form{
		DetectionMethod:    string(models.DetectionNormal),
		TKS:                "12",
		RNR:                "0.5",
		MinTokens:          "50",
		ImportFilter:       "true",
		ForceRecompute:     "true",
		ComodMethod:        string(models.ComodCloneSet),
		AnalysisMethod:     string(models.AnalysisMergeCommit),
		AnalysisFrequency:  "50",
		SearchDepth:        "-1",
		MaxAnalyzedCommits: "-1",
	}
}

// Snapshot derives a fresh AnalysisParameters from the form.
// Values that cannot be read as their field's type become nil.
func (f Form) Snapshot() models.AnalysisParameters {
	return models.AnalysisParameters{
		URL:                strings.TrimSpace(f.URL),
		DetectionMethod:    models.DetectionMethod(strings.TrimSpace(f.DetectionMethod)),
		TKS:                parseInt(f.TKS),
		RNR:                parseFloat(f.RNR),
		MinTokens:          parseInt(f.MinTokens),
		ImportFilter:       parseBool(f.ImportFilter),
		ForceRecompute:     parseBool(f.ForceRecompute),
		ComodMethod:        models.ComodMethod(strings.TrimSpace(f.ComodMethod)),
		AnalysisMethod:     models.AnalysisMethod(strings.TrimSpace(f.AnalysisMethod)),
		AnalysisFrequency:  parseInt(f.AnalysisFrequency),
		SearchDepth:        parseInt(f.SearchDepth),
		MaxAnalyzedCommits: parseInt(f.MaxAnalyzedCommits),
	}
}

// Merge returns f with every non-empty field of o applied over it.
func (f Form) Merge(o Form) Form {
	pick := func(base, over string) string {
		if over != "" {
			return over
		}
		return base
	}
	return Form{
		URL:                pick(f.URL, o.URL),
		DetectionMethod:    pick(f.DetectionMethod, o.DetectionMethod),
		TKS:                pick(f.TKS, o.TKS),
		RNR:                pick(f.RNR, o.RNR),
		MinTokens:          pick(f.MinTokens, o.MinTokens),
		ImportFilter:       pick(f.ImportFilter, o.ImportFilter),
		ForceRecompute:     pick(f.ForceRecompute, o.ForceRecompute),
		ComodMethod:        pick(f.ComodMethod, o.ComodMethod),
		AnalysisMethod:     pick(f.AnalysisMethod, o.AnalysisMethod),
		AnalysisFrequency:  pick(f.AnalysisFrequency, o.AnalysisFrequency),
		SearchDepth:        pick(f.SearchDepth, o.SearchDepth),
		MaxAnalyzedCommits: pick(f.MaxAnalyzedCommits, o.MaxAnalyzedCommits),
	}
}

// parseInt accepts decimal text with no fractional part ("12", "-1", "3.0").
// cast.ToIntE is not used: it treats a leading zero as octal.
func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return nil
	}
	// -MinInt is a power of two and exact as a float64; MaxInt is not.
	if v >= -float64(math.MinInt) || v < float64(math.MinInt) {
		return nil
	}
	return models.IntPtr(int(v))
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return nil
	}
	return models.FloatPtr(v)
}

func parseBool(s string) *bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := cast.ToBoolE(s)
	if err != nil {
		return nil
	}
	return models.BoolPtr(v)
}
