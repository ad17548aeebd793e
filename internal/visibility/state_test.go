package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "memoria/pkg/domain-errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  State
	}{
		{"approved passes through", "approved", StateApproved},
		{"pending passes through", "pending", StatePending},
		{"anonymized passes through", "anonymized", StateAnonymized},
		{"blurred passes through", "blurred", StateBlurred},
		{"removed passes through", "removed", StateRemoved},
		{"empty string becomes pending", "", StatePending},
		{"unknown value becomes pending", "hidden", StatePending},
		{"wrong case becomes pending", "Approved", StatePending},
		{"whitespace becomes pending", " approved ", StatePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestParseState(t *testing.T) {
	t.Run("accepts every supported state", func(t *testing.T) {
		for _, want := range allStates {
			got, err := ParseState(want.String())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParseState("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects unknown input instead of coercing to pending", func(t *testing.T) {
		_, err := ParseState("aproved")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestMediaPresentation(t *testing.T) {
	tests := []struct {
		state State
		want  MediaTier
	}{
		{StateApproved, MediaNormal},
		{StateAnonymized, MediaNormal},
		{StateBlurred, MediaBlurred},
		{StatePending, MediaHidden},
		{StateRemoved, MediaHidden},
		{State("bogus"), MediaHidden},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, MediaPresentation(tt.state))
		})
	}
}
