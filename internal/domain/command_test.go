package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIntent(t *testing.T) {
	tests := []struct {
		raw  string
		want Intent
	}{
		{"add", IntentAdd},
		{" Remove ", IntentRemove},
		{"view", IntentView},
		{"LIST", IntentView},
		{"show", IntentView},
		{"clear", IntentClear},
		{"empty", IntentClear},
		{"error", IntentError},
		{"unknown", IntentUnknown},
		{"purchase", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeIntent(tc.raw))
		})
	}
}

func TestParsedCommand_AIAnalysis(t *testing.T) {
	ok := ParsedCommand{Intent: "add", Raw: `{"intent":"add"}`}
	assert.Equal(t, `{"intent":"add"}`, ok.AIAnalysis())

	failed := ParsedCommand{Intent: "error", ErrorMessage: "timeout", Raw: "partial"}
	assert.Equal(t, "timeout", failed.AIAnalysis())
}

func TestFilterCriteria_IsEmpty(t *testing.T) {
	assert.True(t, FilterCriteria{}.IsEmpty())
	assert.False(t, FilterCriteria{Colour: "blue"}.IsEmpty())
	assert.False(t, FilterCriteria{CarbonBucket: CarbonHigh}.IsEmpty())
}
