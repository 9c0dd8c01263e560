package response

import (
	"encoding/json"
	"testing"

	"healthmate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestUnwrapList(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantIDs   []string
		wantTotal int
	}{
		{"paginated", `{"count": 12, "results": [{"id": 1}, {"id": 2}]}`, []string{"1", "2"}, 12},
		{"baas documents", `{"total": 1, "documents": [{"$id": "abc"}]}`, []string{"abc"}, 1},
		{"data envelope", `{"success": true, "data": [{"id": "x"}], "total": 5}`, []string{"x"}, 5},
		{"nested envelope", `{"success": true, "data": {"results": [{"id": 9}], "count": 1}}`, []string{"9"}, 1},
		{"bare array", `[{"id": 3}, {"id": 4}, {"id": 5}]`, []string{"3", "4", "5"}, 3},
		{"missing count", `{"results": [{"id": 7}]}`, []string{"7"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := UnwrapList(decode(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, list.Total)

			ids := make([]string, 0, len(list.Documents))
			for _, d := range list.Documents {
				ids = append(ids, d.ID())
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestUnwrapList_Rejects(t *testing.T) {
	_, err := UnwrapList(decode(t, `{"detail": "nope"}`))
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)

	_, err = UnwrapList(decode(t, `[1, 2]`))
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)

	_, err = UnwrapList("text")
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)
}

func TestUnwrapDocument(t *testing.T) {
	doc, err := UnwrapDocument(decode(t, `{"success": true, "data": {"id": 1, "name": "Aspirin"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", doc["name"])

	doc, err = UnwrapDocument(decode(t, `{"id": 2, "name": "Metformin"}`))
	require.NoError(t, err)
	assert.Equal(t, "2", doc.ID())

	_, err = UnwrapDocument(decode(t, `[]`))
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)
}
