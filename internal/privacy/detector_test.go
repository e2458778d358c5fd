package privacy

import (
	"testing"

	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector(t *testing.T, detectors ...string) *Detector {
	t.Helper()
	d, err := New(config.PrivacyConfig{Enabled: true, Detectors: detectors}, nil)
	require.NoError(t, err)
	return d
}

func TestProcessText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		types []string
	}{
		{
			name:  "email and phone",
			input: "Ask the man at jane.doe@example.com or 555-123-4567.",
			want:  "Ask the man at [EMAIL] or [PHONE].",
			types: []string{"email", "phone"},
		},
		{
			name:  "ssn",
			input: "Her SSN is 123-45-6789.",
			want:  "Her SSN is [SSN].",
			types: []string{"ssn"},
		},
		{
			name:  "credit card before phone",
			input: "Card 4111 1111 1111 1111 was used.",
			want:  "Card [CREDIT_CARD] was used.",
			types: []string{"credit_card"},
		},
		{
			name:  "ip address",
			input: "Every request came from 10.0.0.12 today.",
			want:  "Every request came from [IP_ADDRESS] today.",
			types: []string{"ip_address"},
		},
		{
			name:  "nothing to mask",
			input: "Women always vote.",
			want:  "Women always vote.",
		},
	}

	d := newDetector(t, "all")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.ProcessText(tt.input)
			assert.Equal(t, tt.want, result.MaskedText)

			types := []string{}
			for _, f := range result.Findings {
				types = append(types, f.EntityType)
			}
			if tt.types == nil {
				tt.types = []string{}
			}
			assert.Equal(t, tt.types, types)
		})
	}
}

func TestSelectedDetectors(t *testing.T) {
	d := newDetector(t, "phone", "email")
	assert.Equal(t, []string{"email", "phone"}, d.EnabledRules())
	assert.Equal(t, "SSN 123-45-6789 for [EMAIL]", d.Mask("SSN 123-45-6789 for a@b.io"))
}

func TestUnknownDetector(t *testing.T) {
	_, err := New(config.PrivacyConfig{Detectors: []string{"passport"}}, nil)
	assert.ErrorContains(t, err, "unknown detector: passport")
}
