package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"weasel", "ferret"}
	moderator, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple word and spacing preserved",
			input:    "the weasel is loose",
			expected: "the ****** is loose",
		},
		{
			name:     "case insensitive",
			input:    "WEASEL and Ferret",
			expected: "****** and ******",
		},
		{
			name:     "punctuation inside the word",
			input:    "that w.e.a.s.e.l again",
			expected: "that *********** again",
		},
		{
			name:     "multiple occurrences",
			input:    "ferret ferret",
			expected: "****** ******",
		},
		{
			name:     "clean text untouched",
			input:    "nothing to see here",
			expected: "nothing to see here",
		},
		{
			name:     "empty text untouched",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, moderator.Censor(tt.input))
		})
	}
}

func TestModerator_Empty_Dictionary_Disables_Censoring(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator(nil, replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	req.Equal("weasel", moderator.Censor("weasel"))
}
