// Package validation checks analysis parameters before they are submitted.
package validation

import (
	"regexp"
	"strings"

	"github.com/msccatools/msccat-client/internal/models"
)

// Field names, as sent on the wire.
const (
	FieldURL                = "url"
	FieldDetectionMethod    = "detection_method"
	FieldTKS                = "tks"
	FieldRNR                = "rnr"
	FieldMinTokens          = "min_tokens"
	FieldImportFilter       = "import_filter"
	FieldComodMethod        = "comod_method"
	FieldAnalysisMethod     = "analysis_method"
	FieldAnalysisFrequency  = "analysis_frequency"
	FieldSearchDepth        = "search_depth"
	FieldMaxAnalyzedCommits = "max_analyzed_commits"
	FieldForceRecompute     = "force_recompute"
)

var githubRepoURL = regexp.MustCompile(`^https://github\.com/[^/\s]+/[^/\s]+$`)

// Error is one rule violation, attributable to a field.
type Error struct {
	Field   string
	Key     string
	Message string
}

func (e Error) Error() string {
	return e.Message
}

// Errors is the ordered result of one validation pass.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, "\n")
}

// Err returns e as an error, or nil when there are no violations.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator applies the parameter rules and renders messages through a Localizer.
type Validator struct {
	loc Localizer
}

// New creates a validator. A nil Localizer means English.
func New(loc Localizer) *Validator {
	if loc == nil {
		loc = English
	}
	return &Validator{loc: loc}
}

// Validate checks p against every rule using the English catalog.
func Validate(p models.AnalysisParameters) Errors {
	return New(nil).Validate(p)
}

// NormalizeURL trims whitespace and trailing slashes.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// Validate checks p against every rule. All rules run on every call and the
// result is in rule order; an empty result means p can be submitted.
func (v *Validator) Validate(p models.AnalysisParameters) Errors {
	var errs Errors
	add := func(field, key string) {
		errs = append(errs, Error{Field: field, Key: key, Message: v.loc.Message(key)})
	}

	// Emptiness is judged before trailing slashes are stripped, so "///" is
	// an invalid URL rather than a missing one.
	switch {
	case strings.TrimSpace(p.URL) == "":
		add(FieldURL, KeyRequiredURL)
	case !githubRepoURL.MatchString(NormalizeURL(p.URL)):
		add(FieldURL, KeyInvalidURL)
	}

	// An out-of-range value reports the enum error only; a known value other
	// than the implemented one reports the not-implemented error only.
	switch {
	case !p.DetectionMethod.Valid():
		add(FieldDetectionMethod, KeyDetectionMethod)
	case p.DetectionMethod != models.DetectionNormal:
		add(FieldDetectionMethod, KeyDetectionNotImpl)
	}

	if !positive(p.TKS) {
		add(FieldTKS, KeyTKS)
	}

	if p.RNR == nil || !(*p.RNR > 0 && *p.RNR <= 1) {
		add(FieldRNR, KeyRNR)
	}

	if !positive(p.MinTokens) {
		add(FieldMinTokens, KeyMinTokens)
	}

	if p.ImportFilter == nil {
		add(FieldImportFilter, KeyImportFilter)
	}

	switch {
	case !p.ComodMethod.Valid():
		add(FieldComodMethod, KeyComodMethod)
	case p.ComodMethod != models.ComodCloneSet:
		add(FieldComodMethod, KeyComodNotImpl)
	}

	if !p.AnalysisMethod.Valid() {
		add(FieldAnalysisMethod, KeyAnalysisMethod)
	}

	// Checked whatever the analysis method is.
	if !positive(p.AnalysisFrequency) {
		add(FieldAnalysisFrequency, KeyAnalysisFrequency)
	}

	if !atLeastUnlimited(p.SearchDepth) {
		add(FieldSearchDepth, KeySearchDepth)
	}

	if !atLeastUnlimited(p.MaxAnalyzedCommits) {
		add(FieldMaxAnalyzedCommits, KeyMaxAnalyzed)
	}

	if p.ForceRecompute == nil {
		add(FieldForceRecompute, KeyForceRecompute)
	}

	return errs
}

func positive(v *int) bool {
	return v != nil && *v > 0
}

func atLeastUnlimited(v *int) bool {
	return v != nil && *v >= models.Unlimited
}
