package validation

// Message keys. Keys are stable; the rendered text comes from a Localizer.
const (
	KeyRequiredURL       = "errorRequiredUrl"
	KeyInvalidURL        = "errorInvalidUrl"
	KeyDetectionMethod   = "errorDetectionMethod"
	KeyDetectionNotImpl  = "errorDetectionNotImpl"
	KeyTKS               = "errorTks"
	KeyRNR               = "errorRnr"
	KeyMinTokens         = "errorMinTokens"
	KeyImportFilter      = "errorImportFilter"
	KeyComodMethod       = "errorComodMethod"
	KeyComodNotImpl      = "errorComodNotImpl"
	KeyAnalysisMethod    = "errorAnalysisMethod"
	KeyAnalysisFrequency = "errorAnalysisFrequency"
	KeySearchDepth       = "errorSearchDepth"
	KeyMaxAnalyzed       = "errorMaxAnalyzed"
	KeyForceRecompute    = "errorForceRecompute"
)

// Localizer renders a message key in the user's language.
type Localizer interface {
	Message(key string) string
}

// Catalog is a Localizer backed by a fixed map. Unknown keys render as the key.
type Catalog map[string]string

// Message implements Localizer.
func (c Catalog) Message(key string) string {
	if s, ok := c[key]; ok {
		return s
	}
	return key
}

// English is the built-in catalog.
var English = Catalog{
	KeyRequiredURL:       "Repository URL is required",
	KeyInvalidURL:        "Repository URL must be a GitHub repository URL",
	KeyDetectionMethod:   "Detection method must be one of normal,tks,rnr",
	KeyDetectionNotImpl:  "TKS and RNR are not implemented",
	KeyTKS:               "TKS must be an integer greater than 0",
	KeyRNR:               "RNR must satisfy 0 < RNR <= 1",
	KeyMinTokens:         "Minimum matching tokens must be an integer greater than 0",
	KeyImportFilter:      "Import filtering must be true/false",
	KeyComodMethod:       "Co-modification method must be one of clone_set,clone_pair",
	KeyComodNotImpl:      "clone_pair is not implemented",
	KeyAnalysisMethod:    "Analysis method must be one of merge_commit,tag,frequency",
	KeyAnalysisFrequency: "ANALYSIS_FREQUENCY must be an integer greater than 0",
	KeySearchDepth:       "SEARCH_DEPTH must be an integer >= -1",
	KeyMaxAnalyzed:       "MAX_ANALYZED_COMMITS must be an integer >= -1",
	KeyForceRecompute:    "force_recompute must be true/false",
}
