package analyzer

import (
	"fmt"

	"github.com/anime-shed/anemia-screen-go/pkg/models"
)

// tierRule describes one row of the cascading classification table.
// Rules are evaluated in order and the first match wins.
type tierRule struct {
	tier          models.RiskTier
	maxPallor     float64 // exclusive
	minHemoglobin float64 // inclusive
	catchAll      bool

	scoreBase, scoreSlope          float64
	confidenceBase, confidenceSpan float64
	focusAreas                     []float64

	explanation     func(m models.ColorMetrics) string
	recommendations []string
	findings        func(m models.ColorMetrics) []string
}

var tierRules = []tierRule{
	{
		tier:           models.TierNormal,
		maxPallor:      0.2,
		minHemoglobin:  12.0,
		scoreBase:      0,
		scoreSlope:     50,
		confidenceBase: 92,
		confidenceSpan: 6,
		focusAreas:     []float64{},
		explanation: func(m models.ColorMetrics) string {
			return fmt.Sprintf("Skin tone shows healthy coloration (average red %.0f) with an estimated hemoglobin of %.1f g/dL. No visual signs of pallor were detected.",
				m.AvgR, m.HemoglobinEstimate)
		},
		recommendations: []string{
			"Maintain a balanced diet rich in iron, folate and vitamin B12",
			"Continue routine annual health check-ups",
			"Stay hydrated and keep regular physical activity",
		},
		findings: func(m models.ColorMetrics) []string {
			return []string{
				fmt.Sprintf("Red channel intensity %.0f is within the healthy range", m.AvgR),
				fmt.Sprintf("Pallor index %.2f indicates normal skin perfusion", m.PallorIndex),
				fmt.Sprintf("Estimated hemoglobin %.1f g/dL is within normal limits", m.HemoglobinEstimate),
			}
		},
	},
	{
		tier:           models.TierMildRisk,
		maxPallor:      0.4,
		minHemoglobin:  10.0,
		scoreBase:      25,
		scoreSlope:     40,
		confidenceBase: 87,
		confidenceSpan: 8,
		focusAreas:     []float64{30, 40, 50, 60},
		explanation: func(m models.ColorMetrics) string {
			return fmt.Sprintf("Slight pallor detected (average red %.0f). The estimated hemoglobin of %.1f g/dL suggests possible mild anemia.",
				m.AvgR, m.HemoglobinEstimate)
		},
		recommendations: []string{
			"Increase intake of iron-rich foods such as leafy greens, legumes and lean meat",
			"Pair iron-rich meals with vitamin C to improve absorption",
			"Consider a complete blood count at your next check-up",
			"Monitor for fatigue, dizziness or shortness of breath",
		},
		findings: func(m models.ColorMetrics) []string {
			return []string{
				fmt.Sprintf("Red channel intensity %.0f is slightly below the expected range", m.AvgR),
				fmt.Sprintf("Pallor index %.2f indicates mild paleness", m.PallorIndex),
				fmt.Sprintf("Estimated hemoglobin %.1f g/dL is borderline low", m.HemoglobinEstimate),
			}
		},
	},
	{
		tier:           models.TierHighRisk,
		maxPallor:      0.6,
		minHemoglobin:  8.0,
		scoreBase:      55,
		scoreSlope:     30,
		confidenceBase: 89,
		confidenceSpan: 6,
		focusAreas:     []float64{20, 30, 40, 50, 60, 70},
		explanation: func(m models.ColorMetrics) string {
			return fmt.Sprintf("Noticeable pallor detected (average red %.0f). The estimated hemoglobin of %.1f g/dL indicates a high likelihood of anemia.",
				m.AvgR, m.HemoglobinEstimate)
		},
		recommendations: []string{
			"Schedule an appointment with a healthcare provider soon",
			"Request a complete blood count and iron studies",
			"Discuss iron supplementation with your doctor before starting it",
			"Avoid strenuous activity if you feel weak or dizzy",
			"Track symptoms such as fatigue, cold hands or headaches",
		},
		findings: func(m models.ColorMetrics) []string {
			return []string{
				fmt.Sprintf("Red channel intensity %.0f is clearly reduced", m.AvgR),
				fmt.Sprintf("Pallor index %.2f indicates significant paleness", m.PallorIndex),
				fmt.Sprintf("Estimated hemoglobin %.1f g/dL is below the normal range", m.HemoglobinEstimate),
				"Color distribution is consistent with reduced blood perfusion",
			}
		},
	},
	{
		tier:           models.TierSevereRisk,
		catchAll:       true,
		scoreBase:      75,
		scoreSlope:     25,
		confidenceBase: 94,
		confidenceSpan: 4,
		focusAreas:     []float64{10, 20, 30, 40, 50, 60, 70, 80},
		explanation: func(m models.ColorMetrics) string {
			return fmt.Sprintf("Severe pallor detected (average red %.0f). The estimated hemoglobin of %.1f g/dL suggests significant anemia that needs prompt medical attention.",
				m.AvgR, m.HemoglobinEstimate)
		},
		recommendations: []string{
			"Seek medical attention as soon as possible",
			"Get a complete blood count and iron panel urgently",
			"Do not self-medicate; follow a doctor's treatment plan",
			"Go to emergency care if you have chest pain, fainting or severe breathlessness",
			"Rest and avoid physical exertion until evaluated",
		},
		findings: func(m models.ColorMetrics) []string {
			return []string{
				fmt.Sprintf("Red channel intensity %.0f is severely reduced", m.AvgR),
				fmt.Sprintf("Pallor index %.2f indicates marked paleness", m.PallorIndex),
				fmt.Sprintf("Estimated hemoglobin %.1f g/dL is critically low", m.HemoglobinEstimate),
				"Color distribution strongly suggests reduced hemoglobin levels",
			}
		},
	},
}

func (r tierRule) matches(m models.ColorMetrics) bool {
	if r.catchAll {
		return true
	}
	return m.PallorIndex < r.maxPallor && m.HemoglobinEstimate >= r.minHemoglobin
}

func (r tierRule) assess(m models.ColorMetrics, rnd RandomSource) models.RiskAssessment {
	focus := make([]float64, len(r.focusAreas))
	copy(focus, r.focusAreas)
	recs := make([]string, len(r.recommendations))
	copy(recs, r.recommendations)

	return models.RiskAssessment{
		Tier:             r.tier,
		Confidence:       r.confidenceBase + rnd.Float64()*r.confidenceSpan,
		RiskScore:        r.scoreBase + m.PallorIndex*r.scoreSlope,
		Explanation:      r.explanation(m),
		Recommendations:  recs,
		DetailedFindings: r.findings(m),
		FocusAreas:       focus,
	}
}

// riskClassifier implements RiskClassifier
type riskClassifier struct{}

// NewRiskClassifier creates the cascading threshold classifier
func NewRiskClassifier() RiskClassifier {
	return &riskClassifier{}
}

// Classify selects exactly one tier for the metrics
func (rc *riskClassifier) Classify(metrics models.ColorMetrics, rnd RandomSource) models.RiskAssessment {
	if rnd == nil {
		rnd = sharedRandom{}
	}
	for _, rule := range tierRules {
		if rule.matches(metrics) {
			return rule.assess(metrics, rnd)
		}
	}
	// unreachable: the last rule always matches
	return FallbackAssessment()
}

// Fallback record values
const (
	FallbackConfidence = 85.0
	FallbackRiskScore  = 25.0
)

// FallbackAssessment is returned whenever classification cannot run:
// no skin samples, decode trouble or a panic inside the pipeline.
func FallbackAssessment() models.RiskAssessment {
	return models.RiskAssessment{
		Tier:        models.TierMildRisk,
		Confidence:  FallbackConfidence,
		RiskScore:   FallbackRiskScore,
		Explanation: "The image could not be analysed reliably. Showing a cautious default assessment.",
		Recommendations: []string{
			"Retake the photo in even, natural lighting",
			"Make sure the skin area fills most of the frame",
			"Consult a healthcare provider for an accurate blood test",
		},
		DetailedFindings: []string{
			"Insufficient skin region detected for color analysis",
		},
		FocusAreas: []float64{},
	}
}
