package validator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

const validationPrompt = `You screen photos before a skin color analysis.
Approve the image only if it is a real photograph in which exposed human skin
(for example a palm, inner eyelid, nail bed or forearm) fills a clear part of the frame.
Reject drawings, screenshots, documents, objects without skin and heavily filtered images.
Answer with JSON only: {"approved": true|false, "reason": "<one short sentence>"}`

// geminiValidator asks a Gemini model to screen the upload
type geminiValidator struct {
	client *genai.Client
	model  string
}

// NewGeminiValidator creates a validator backed by the Gemini API
func NewGeminiValidator(ctx context.Context, apiKey, model string) (ContentValidator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	v, err := newGeminiValidator(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func newGeminiValidator(ctx context.Context, cfg *genai.ClientConfig, model string) (*geminiValidator, error) {
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiValidator{client: client, model: model}, nil
}

func (g *geminiValidator) Validate(ctx context.Context, data []byte, mimeType string) (Verdict, error) {
	if len(data) == 0 {
		return Verdict{}, fmt.Errorf("empty image payload")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mimeType),
			genai.NewPartFromText(validationPrompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("GenAI validation failed: %w", err)
	}

	return parseVerdict(resp.Text())
}
