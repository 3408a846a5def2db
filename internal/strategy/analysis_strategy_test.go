package strategy

import (
	"testing"

	"github.com/anime-shed/anemia-screen-go/internal/analyzer"
)

func TestForMode(t *testing.T) {
	testCases := []struct {
		mode     string
		wantName string
		wantErr  bool
	}{
		{"", ModeStandard, false},
		{"standard", ModeStandard, false},
		{"FAST", ModeFast, false},
		{" precise ", ModePrecise, false},
		{"turbo", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.mode, func(t *testing.T) {
			s, err := ForMode(tc.mode)
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected error for unknown mode")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.GetStrategyName() != tc.wantName {
				t.Errorf("Expected %s, got %s", tc.wantName, s.GetStrategyName())
			}
		})
	}
}

func TestStrategyOptions(t *testing.T) {
	defaults := analyzer.DefaultOptions().WithStride(6).WithRandom(analyzer.FixedRandom(0.5))

	standard := NewStandardAnalysisStrategy().Options(defaults)
	if standard.SampleStride != 6 || !standard.RenderHeatmap {
		t.Errorf("Expected standard to keep defaults, got %+v", standard)
	}

	fast := NewFastAnalysisStrategy().Options(defaults)
	if fast.SampleStride != 12 {
		t.Errorf("Expected fast stride 12, got %d", fast.SampleStride)
	}
	if fast.RenderHeatmap {
		t.Error("Expected fast mode to skip the heatmap")
	}
	if fast.Random == nil {
		t.Error("Expected fast mode to keep the injected random source")
	}

	lowStride := NewFastAnalysisStrategy().Options(analyzer.DefaultOptions().WithStride(1))
	if lowStride.SampleStride != 8 {
		t.Errorf("Expected fast stride floor of 8, got %d", lowStride.SampleStride)
	}

	precise := NewPreciseAnalysisStrategy().Options(defaults.WithoutHeatmap())
	if precise.SampleStride != 1 {
		t.Errorf("Expected precise stride 1, got %d", precise.SampleStride)
	}
	if precise.RenderHeatmap {
		t.Error("Expected precise mode to keep the heatmap setting")
	}
}
