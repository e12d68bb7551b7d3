package params

import (
	"math"
	"testing"

	"github.com/msccatools/msccat-client/internal/models"
)

func TestDefaultFormSnapshot(t *testing.T) {
	p := DefaultForm().Snapshot()

	if p.DetectionMethod != models.DetectionNormal {
		t.Errorf("DetectionMethod = %v, want %v", p.DetectionMethod, models.DetectionNormal)
	}
	if p.TKS == nil || *p.TKS != 12 {
		t.Errorf("TKS = %v, want 12", p.TKS)
	}
	if p.RNR == nil || *p.RNR != 0.5 {
		t.Errorf("RNR = %v, want 0.5", p.RNR)
	}
	if p.MinTokens == nil || *p.MinTokens != 50 {
		t.Errorf("MinTokens = %v, want 50", p.MinTokens)
	}
	if p.ImportFilter == nil || !*p.ImportFilter {
		t.Errorf("ImportFilter = %v, want true", p.ImportFilter)
	}
	if p.ForceRecompute == nil || !*p.ForceRecompute {
		t.Errorf("ForceRecompute = %v, want true", p.ForceRecompute)
	}
	if p.ComodMethod != models.ComodCloneSet {
		t.Errorf("ComodMethod = %v, want %v", p.ComodMethod, models.ComodCloneSet)
	}
	if p.AnalysisMethod != models.AnalysisMergeCommit {
		t.Errorf("AnalysisMethod = %v, want %v", p.AnalysisMethod, models.AnalysisMergeCommit)
	}
	if p.AnalysisFrequency == nil || *p.AnalysisFrequency != 50 {
		t.Errorf("AnalysisFrequency = %v, want 50", p.AnalysisFrequency)
	}
	if p.SearchDepth == nil || *p.SearchDepth != models.Unlimited {
		t.Errorf("SearchDepth = %v, want -1", p.SearchDepth)
	}
	if p.MaxAnalyzedCommits == nil || *p.MaxAnalyzedCommits != models.Unlimited {
		t.Errorf("MaxAnalyzedCommits = %v, want -1", p.MaxAnalyzedCommits)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"12", 12, true},
		{" 7 ", 7, true},
		{"-1", -1, true},
		{"0", 0, true},
		{"010", 10, true},
		{"3.0", 3, true},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"3000000000", 3000000000, true},
		{"-3000000000", -3000000000, true},
		{"1e12", 1000000000000, true},
		{"1e19", 0, false},
		{"-1e19", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseInt(tt.in)
			if !tt.wantOK {
				if got != nil {
					t.Errorf("parseInt(%q) = %d, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("parseInt(%q) = %v, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnapshotKeepsLargeIntegers(t *testing.T) {
	f := DefaultForm()
	f.SearchDepth = "3000000000"
	p := f.Snapshot()
	if p.SearchDepth == nil || *p.SearchDepth != 3000000000 {
		t.Errorf("SearchDepth = %v, want 3000000000", p.SearchDepth)
	}
}

func TestParseFloat(t *testing.T) {
	if got := parseFloat("0.25"); got == nil || *got != 0.25 {
		t.Errorf("parseFloat(0.25) = %v, want 0.25", got)
	}
	if got := parseFloat("x"); got != nil {
		t.Errorf("parseFloat(x) = %v, want nil", *got)
	}
	if got := parseFloat("NaN"); got == nil || !math.IsNaN(*got) {
		t.Errorf("parseFloat(NaN) = %v, want NaN", got)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"false", false, true},
		{"1", true, true},
		{"0", false, true},
		{"yes-please", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseBool(tt.in)
			if !tt.wantOK {
				if got != nil {
					t.Errorf("parseBool(%q) = %v, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("parseBool(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnapshotIsFresh(t *testing.T) {
	f := DefaultForm()
	a := f.Snapshot()
	f.TKS = "99"
	b := f.Snapshot()

	if *a.TKS != 12 {
		t.Errorf("first snapshot TKS = %d, want 12 after form change", *a.TKS)
	}
	if *b.TKS != 99 {
		t.Errorf("second snapshot TKS = %d, want 99", *b.TKS)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultForm()
	got := base.Merge(Form{URL: "https://github.com/o/r", TKS: "20"})

	if got.URL != "https://github.com/o/r" {
		t.Errorf("URL = %q, want override", got.URL)
	}
	if got.TKS != "20" {
		t.Errorf("TKS = %q, want 20", got.TKS)
	}
	if got.RNR != base.RNR {
		t.Errorf("RNR = %q, want %q", got.RNR, base.RNR)
	}
}
