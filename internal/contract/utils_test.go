package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{100, HealthyValue},
		{80, HealthyValue},
		{79.9, AdequateValue},
		{60, AdequateValue},
		{59.9, ConcerningValue},
		{40, ConcerningValue},
		{39.9, CriticalValue},
		{0, CriticalValue},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, GetPlainLabel(test.score))
	}
}

func TestGetColorLabelText(t *testing.T) {
	// Color codes depend on the terminal; the label text must survive either way.
	assert.Contains(t, GetColorLabel(85), HealthyValue)
	assert.Contains(t, GetColorLabel(65), AdequateValue)
	assert.Contains(t, GetColorLabel(45), ConcerningValue)
	assert.Contains(t, GetColorLabel(5), CriticalValue)
}

func TestParseBoolString(t *testing.T) {
	trueValues := []string{"yes", "YES", "true", "True", "1"}
	for _, v := range trueValues {
		got, err := ParseBoolString(v)
		require.NoError(t, err)
		assert.True(t, got)
	}

	falseValues := []string{"no", "NO", "false", "False", "0"}
	for _, v := range falseValues {
		got, err := ParseBoolString(v)
		require.NoError(t, err)
		assert.False(t, got)
	}

	_, err := ParseBoolString("maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid boolean string")
}
