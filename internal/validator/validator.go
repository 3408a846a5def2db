package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the outcome of a content check
type Verdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// ContentValidator decides whether an image shows skin suitable for analysis.
// An error means the check itself could not be completed.
type ContentValidator interface {
	Validate(ctx context.Context, data []byte, mimeType string) (Verdict, error)
}

// acceptAll approves everything; used when no model credentials are configured
type acceptAll struct{}

// NewAcceptAll returns a validator that approves every image
func NewAcceptAll() ContentValidator {
	return acceptAll{}
}

func (acceptAll) Validate(ctx context.Context, data []byte, mimeType string) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	return Verdict{Approved: true, Reason: "content validation disabled"}, nil
}

// parseVerdict reads the model's JSON answer. Models sometimes wrap JSON in
// a markdown fence, which is stripped first.
func parseVerdict(text string) (Verdict, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return Verdict{}, fmt.Errorf("empty validator response")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Verdict{}, fmt.Errorf("malformed validator response: %w", err)
	}
	if !v.Approved && v.Reason == "" {
		v.Reason = "image does not show a usable skin region"
	}
	return v, nil
}
