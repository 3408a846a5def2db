package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type capturedCall struct {
	method string
	path   string
	apiKey string
	body   map[string]any
}

// newGeminiServer answers every generateContent call with the given status and body
func newGeminiServer(t *testing.T, status int, reply string) (*geminiValidator, *capturedCall) {
	t.Helper()

	call := &capturedCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call.method = r.Method
		call.path = r.URL.Path
		call.apiKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&call.body); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	v, err := newGeminiValidator(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL + "/"},
	}, DefaultGeminiModel)
	require.NoError(t, err)
	return v, call
}

func candidateReply(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	return string(payload)
}

// jsonAt walks nested JSON maps and arrays; ints index arrays
func jsonAt(t *testing.T, v any, keys ...any) any {
	t.Helper()
	for _, k := range keys {
		switch k := k.(type) {
		case string:
			m, ok := v.(map[string]any)
			require.Truef(t, ok, "expected object at %q", k)
			v = m[k]
		case int:
			a, ok := v.([]any)
			require.Truef(t, ok, "expected array at %d", k)
			require.Greater(t, len(a), k)
			v = a[k]
		}
	}
	return v
}

func TestGeminiValidator_SendsImageAndPrompt(t *testing.T) {
	v, call := newGeminiServer(t, http.StatusOK, candidateReply(`{"approved": true, "reason": "palm in frame"}`))

	verdict, err := v.Validate(context.Background(), []byte("fake-png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, Verdict{Approved: true, Reason: "palm in frame"}, verdict)

	assert.Equal(t, http.MethodPost, call.method)
	assert.True(t, strings.HasSuffix(call.path, "models/"+DefaultGeminiModel+":generateContent"), call.path)
	assert.Equal(t, "test-key", call.apiKey)

	assert.Equal(t, "user", jsonAt(t, call.body, "contents", 0, "role"))
	assert.Equal(t, "image/png", jsonAt(t, call.body, "contents", 0, "parts", 0, "inlineData", "mimeType"))
	assert.NotEmpty(t, jsonAt(t, call.body, "contents", 0, "parts", 0, "inlineData", "data"))
	prompt, _ := jsonAt(t, call.body, "contents", 0, "parts", 1, "text").(string)
	assert.Contains(t, prompt, "Answer with JSON only")
	assert.Equal(t, "application/json", jsonAt(t, call.body, "generationConfig", "responseMimeType"))
	assert.Equal(t, 0.0, jsonAt(t, call.body, "generationConfig", "temperature"))
}

func TestGeminiValidator_ParsesFencedRejection(t *testing.T) {
	v, _ := newGeminiServer(t, http.StatusOK, candidateReply("```json\n{\"approved\": false, \"reason\": \"no skin visible\"}\n```"))

	verdict, err := v.Validate(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	assert.False(t, verdict.Approved)
	assert.Equal(t, "no skin visible", verdict.Reason)
}

func TestGeminiValidator_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		data   []byte
	}{
		{
			name:   "api error",
			status: http.StatusBadRequest,
			reply:  `{"error": {"code": 400, "message": "invalid image", "status": "INVALID_ARGUMENT"}}`,
			data:   []byte("img"),
		},
		{
			name:   "no candidates",
			status: http.StatusOK,
			reply:  `{"candidates": []}`,
			data:   []byte("img"),
		},
		{
			name:   "prose answer",
			status: http.StatusOK,
			reply:  candidateReply("Looks like a hand"),
			data:   []byte("img"),
		},
		{
			name:   "empty payload",
			status: http.StatusOK,
			reply:  candidateReply(`{"approved": true}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newGeminiServer(t, tt.status, tt.reply)
			_, err := v.Validate(context.Background(), tt.data, "image/jpeg")
			assert.Error(t, err)
		})
	}
}
