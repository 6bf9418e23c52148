package biz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pawsense/triage/internal/triage/biz"
)

func TestSafetyInterceptorCheck(t *testing.T) {
	interceptor := biz.NewSafetyInterceptor()

	tests := []struct {
		name      string
		symptoms  []string
		active    bool
		triggered []string
	}{
		{
			name:      "no red flags",
			symptoms:  []string{"vomiting", "lethargy"},
			active:    false,
			triggered: nil,
		},
		{
			name:      "single red flag",
			symptoms:  []string{"vomiting", "seizures"},
			active:    true,
			triggered: []string{"seizures"},
		},
		{
			name:      "multiple red flags sorted",
			symptoms:  []string{"tremors", "collapse", "vomiting"},
			active:    true,
			triggered: []string{"collapse", "tremors"},
		},
		{
			name:      "empty input",
			symptoms:  nil,
			active:    false,
			triggered: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := interceptor.Check(tt.symptoms)
			assert.Equal(t, tt.active, result.Active)
			assert.Equal(t, tt.triggered, result.Triggered)
		})
	}
}

func TestIsRedFlag(t *testing.T) {
	assert.True(t, biz.IsRedFlag("seizures"))
	assert.True(t, biz.IsRedFlag("pale_gums"))
	assert.True(t, biz.IsRedFlag("difficulty_breathing"))
	assert.False(t, biz.IsRedFlag("vomiting"))
}
