package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anime-shed/anemia-screen-go/internal/analyzer"
	"github.com/anime-shed/anemia-screen-go/internal/logger"
	"github.com/anime-shed/anemia-screen-go/internal/service"
	"github.com/anime-shed/anemia-screen-go/internal/storage"
	"github.com/anime-shed/anemia-screen-go/internal/strategy"
	"github.com/anime-shed/anemia-screen-go/pkg/models"
	"github.com/anime-shed/anemia-screen-go/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	jsonOutput  bool
	stride      int
	heatmapPath string
	seed        uint64
	mode        string
}

func newAnalyzeCmd() *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyse a local skin photo",
		Long: `Decode a local image, estimate pallor and hemoglobin from sampled skin
pixels and print a 4-tier risk assessment.

This is a heuristic screen, not a diagnosis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], flags, cmd.Flags().Changed("seed"))
		},
	}

	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "print the response as JSON")
	cmd.Flags().IntVar(&flags.stride, "stride", 0, "sample every Nth pixel (default from mode)")
	cmd.Flags().StringVar(&flags.heatmapPath, "heatmap", "", "write the heatmap overlay PNG to this path")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "seed the confidence jitter for repeatable output")
	cmd.Flags().StringVar(&flags.mode, "mode", "standard", "analysis mode: standard, fast or precise")
	return cmd
}

func runAnalyze(out, errOut io.Writer, path string, flags *analyzeFlags, seeded bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	strat, err := strategy.ForMode(flags.mode)
	if err != nil {
		return err
	}
	opts := strat.Options(analyzer.DefaultOptions())
	if flags.stride > 0 {
		opts = opts.WithStride(flags.stride)
	}
	opts.RenderHeatmap = flags.heatmapPath != ""
	if seeded {
		opts = opts.WithSeed(flags.seed)
	}

	raw := &storage.RawImage{Data: data, ContentType: storage.DetectContentType("", data)}
	result, decodeErr := service.AnalyzeCapture(analyzer.NewImageAnalyzer(), validation.NewQualityValidator(), raw, opts)
	if decodeErr != nil {
		logger.WithFields(logrus.Fields{"path": path}).WithError(decodeErr).
			Warn("Image could not be decoded, returning fallback assessment")
	}
	result.ID = uuid.NewString()
	result.ImageSource = filepath.Base(path)

	if flags.heatmapPath != "" {
		if result.Heatmap == nil {
			fmt.Fprintln(errOut, "No heatmap rendered: the assessment has no focus areas")
		} else if err := os.WriteFile(flags.heatmapPath, result.Heatmap, 0o644); err != nil {
			return fmt.Errorf("write heatmap: %w", err)
		}
	}

	response := models.NewAnalysisResponse(&result)
	response.Heatmap = nil

	if flags.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}
	printReport(out, response)
	return nil
}

func printReport(out io.Writer, r *models.AnalysisResponse) {
	fmt.Fprintf(out, "Source:      %s\n", r.ImageSource)
	fmt.Fprintf(out, "Risk level:  %s (score %d, confidence %.1f%%)\n", r.RiskLevel, r.RiskScore, r.Confidence)
	fmt.Fprintf(out, "Pallor:      %.2f\n", r.Metrics.PallorIndex)
	fmt.Fprintf(out, "Hemoglobin:  %.1f g/dL (estimated)\n", r.Metrics.HemoglobinEstimate)
	fmt.Fprintf(out, "Avg RGB:     %d, %d, %d\n", r.Metrics.AvgR, r.Metrics.AvgG, r.Metrics.AvgB)
	fmt.Fprintf(out, "Skin pixels: %d of %d sampled\n", r.SkinPixels, r.SampledPixels)
	fmt.Fprintln(out)
	fmt.Fprintln(out, r.Explanation)

	if len(r.DetailedFindings) > 0 {
		fmt.Fprintln(out, "\nFindings:")
		for _, f := range r.DetailedFindings {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(out, "\nRecommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(out, "  - %s\n", rec)
		}
	}
	if len(r.QualityIssues) > 0 {
		fmt.Fprintln(out, "\nCapture quality:")
		for _, issue := range r.QualityIssues {
			fmt.Fprintf(out, "  [%s] %s\n", strings.ToUpper(issue.Severity), issue.Message)
		}
	}
}
