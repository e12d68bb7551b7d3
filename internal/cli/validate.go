package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/console"
	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/params"
	"github.com/msccatools/msccat-client/internal/validation"
)

// newValidateCmd creates the 'validate' command.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check analysis parameters without submitting",
		Long: `Derive the analysis parameters from the configured defaults and flags, print
them, and list every rule they violate. Nothing is sent to the runner.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			errs, err := validateForm(w, formFromConfig(cfg))
			if err != nil {
				return err
			}
			if len(errs) > 0 {
				return errReported
			}
			fmt.Fprintln(w, "Parameters are valid.")
			return nil
		},
	}

	addFormFlags(cmd)

	return cmd
}

// validateForm prints the snapshot of form and its violations to w.
func validateForm(w io.Writer, form params.Form) (validation.Errors, error) {
	p := form.Snapshot()
	errs := validation.Validate(p)

	if err := console.RenderTable(w, []string{"Field", "Value"}, paramRows(p)); err != nil {
		return nil, fmt.Errorf("failed to render parameters: %w", err)
	}
	if len(errs) > 0 {
		rows := make([][]string, len(errs))
		for i, e := range errs {
			rows[i] = []string{e.Field, e.Message}
		}
		fmt.Fprintln(w)
		if err := console.RenderTable(w, []string{"Field", "Error"}, rows); err != nil {
			return nil, fmt.Errorf("failed to render errors: %w", err)
		}
	}
	return errs, nil
}

// paramRows lists every parameter in wire order. Absent values show as "-".
func paramRows(p models.AnalysisParameters) [][]string {
	return [][]string{
		{validation.FieldURL, p.URL},
		{validation.FieldDetectionMethod, string(p.DetectionMethod)},
		{validation.FieldTKS, fmtInt(p.TKS)},
		{validation.FieldRNR, fmtFloat(p.RNR)},
		{validation.FieldMinTokens, fmtInt(p.MinTokens)},
		{validation.FieldImportFilter, fmtBool(p.ImportFilter)},
		{validation.FieldForceRecompute, fmtBool(p.ForceRecompute)},
		{validation.FieldComodMethod, string(p.ComodMethod)},
		{validation.FieldAnalysisMethod, string(p.AnalysisMethod)},
		{validation.FieldAnalysisFrequency, fmtInt(p.AnalysisFrequency)},
		{validation.FieldSearchDepth, fmtInt(p.SearchDepth)},
		{validation.FieldMaxAnalyzedCommits, fmtInt(p.MaxAnalyzedCommits)},
	}
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func fmtBool(v *bool) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatBool(*v)
}
