package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptAll(t *testing.T) {
	v, err := NewAcceptAll().Validate(context.Background(), []byte{1}, "image/png")
	require.NoError(t, err)
	assert.True(t, v.Approved)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewAcceptAll().Validate(ctx, []byte{1}, "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Verdict
		wantErr bool
	}{
		{
			name: "approved",
			text: `{"approved": true, "reason": "palm fills the frame"}`,
			want: Verdict{Approved: true, Reason: "palm fills the frame"},
		},
		{
			name: "rejected with fence",
			text: "```json\n{\"approved\": false, \"reason\": \"this is a screenshot\"}\n```",
			want: Verdict{Approved: false, Reason: "this is a screenshot"},
		},
		{
			name: "rejected without reason gets default",
			text: `{"approved": false}`,
			want: Verdict{Approved: false, Reason: "image does not show a usable skin region"},
		},
		{name: "empty", text: "  ", wantErr: true},
		{name: "prose", text: "Looks like a hand to me", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGeminiValidator_RequiresKey(t *testing.T) {
	_, err := NewGeminiValidator(context.Background(), "", "")
	assert.Error(t, err)
}
