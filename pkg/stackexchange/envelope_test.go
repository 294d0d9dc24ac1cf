package stackexchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/9ao9ai9ar/stack-exchange-backup/pkg/errors"
)

func TestParseEnvelope(t *testing.T) {
	body := []byte(`{
		"items": [{"question_id": 1, "title": "First", "view_count": 10}],
		"has_more": true,
		"quota_max": 10000,
		"quota_remaining": 9999,
		"backoff": 10
	}`)

	env, err := ParseEnvelope[Question](body)
	require.NoError(t, err)
	require.Len(t, env.Items, 1)
	assert.Equal(t, int64(1), env.Items[0].QuestionID)
	assert.Equal(t, "First", env.Items[0].Title)
	assert.True(t, env.More())
	assert.Equal(t, 9999, *env.QuotaRemaining)
	assert.Equal(t, 10, *env.Backoff)
	assert.Nil(t, env.Total)
}

func TestParseEnvelopeWithoutItems(t *testing.T) {
	env, err := ParseEnvelope[Filter]([]byte(`{"has_more": false}`))
	require.NoError(t, err)
	assert.Nil(t, env.Items)
	assert.False(t, env.More())

	env, err = ParseEnvelope[Filter]([]byte(`{"items": null}`))
	require.NoError(t, err)
	assert.Nil(t, env.Items)
}

func TestParseEnvelopeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown wrapper field", `{"items": [], "surprise": 1}`},
		{"wrong type", `{"has_more": "yes"}`},
		{"wrong item type", `{"items": [{"question_id": "one"}]}`},
		{"not json", `<html>`},
		{"trailing data", `{"items": []} {"items": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope[Question]([]byte(tt.body))
			require.Error(t, err)

			var validationErr *errs.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}
