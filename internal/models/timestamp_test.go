package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalLayouts(t *testing.T) {
	want := time.Date(2025, 3, 4, 10, 11, 12, 345678000, time.UTC)

	inputs := []string{
		`"2025-03-04T10:11:12.345678+00:00"`,
		`"2025-03-04T10:11:12.345678Z"`,
		`"2025-03-04T10:11:12.345678"`,
		`"2025-03-04 10:11:12.345678"`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(in), &ts))
			assert.True(t, ts.Equal(want), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_NullAndGarbage(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestChat_JSONShape(t *testing.T) {
	var chat Chat
	raw := `{"id":"7f0c6a52-4a4b-4f3c-9d6f-0a1b2c3d4e5f","user_id":"00000000-0000-0000-0000-000000000001","title":"New Chat","created_at":"2025-03-04T10:11:12+00:00"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &chat))

	out, err := json.Marshal(chat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7f0c6a52-4a4b-4f3c-9d6f-0a1b2c3d4e5f","user_id":"00000000-0000-0000-0000-000000000001","title":"New Chat","created_at":"2025-03-04T10:11:12Z"}`, string(out))
}
