package cli

import (
	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/params"
)

// addFormFlags registers one flag per input control. Values are kept as raw
// text; config.Load binds them over defaults.* so an unset flag falls back to
// the configured default.
func addFormFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("url", "", "GitHub repository URL (https://github.com/<owner>/<repo>)")
	f.String("detection-method", "", "Clone detection method: normal, tks, rnr")
	f.String("tks", "", "TKS threshold (positive integer)")
	f.String("rnr", "", "RNR threshold (0 < rnr <= 1)")
	f.String("min-tokens", "", "Minimum matching tokens (positive integer)")
	f.String("import-filter", "", "Filter import statements (true/false)")
	f.String("force-recompute", "", "Ignore cached results (true/false)")
	f.String("comod-method", "", "Co-modification method: clone_set, clone_pair")
	f.String("analysis-method", "", "Analysis method: merge_commit, tag, frequency")
	f.String("analysis-frequency", "", "Commit interval for the frequency method (positive integer)")
	f.String("search-depth", "", "Search depth (-1 for unlimited)")
	f.String("max-analyzed-commits", "", "Maximum analyzed commits (-1 for unlimited)")
}

// formFromConfig returns the input form for a run: the configured defaults
// with any form flags applied.
func formFromConfig(cfg *config.Config) params.Form {
	return params.DefaultForm().Merge(cfg.Defaults.Form())
}
