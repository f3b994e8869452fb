package model

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusSnapshotDecode(t *testing.T) {
	body := `{"liveExecutions":[{"id":1}],"pastExecutions":[{"id":2},{"id":3}],"remainingCapacity":5}`

	var snap StatusSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))

	require.Len(t, snap.LiveExecutions, 1)
	require.Len(t, snap.PastExecutions, 2)
	assert.Equal(t, 5, snap.RemainingCapacity)
	assert.Equal(t, 7, snap.Capacity())
	assert.Equal(t, "1", snap.LiveExecutions[0].ID())
	assert.Equal(t, "3", snap.PastExecutions[1].ID())

	out, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(out))
}

func TestExecutionSummaryPassThrough(t *testing.T) {
	raw := `{"executionId":"abc","status":"running","tokens":{"done":3,"total":9},"tags":["a","b"],"ended":null}`
	summary := NewExecutionSummary([]byte(raw))

	assert.Equal(t, "abc", summary.ID())
	assert.Equal(t, "running", summary.Field("status"))
	assert.Equal(t, `{"done":3,"total":9}`, summary.Field("tokens"))
	assert.Equal(t, `["a","b"]`, summary.Field("tags"))
	assert.Equal(t, "-", summary.Field("ended"))
	assert.Equal(t, "-", summary.Field("missing"))
	assert.Equal(t, []string{"ended", "executionId", "status", "tags", "tokens"}, summary.Keys())

	out, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestExecutionSummaryIDFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "id number", raw: `{"id":42}`, want: "42"},
		{name: "large id keeps digits", raw: `{"id":12345678901234}`, want: "12345678901234"},
		{name: "executionId", raw: `{"executionId":"x-1"}`, want: "x-1"},
		{name: "execution_id", raw: `{"execution_id":7}`, want: "7"},
		{name: "id preferred", raw: `{"executionId":1,"id":2}`, want: "2"},
		{name: "no id", raw: `{"name":"n"}`, want: ""},
		{name: "scalar payload", raw: `17`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewExecutionSummary([]byte(tt.raw)).ID())
		})
	}
}

func TestExecutionSummaryRendering(t *testing.T) {
	loose := NewExecutionSummary([]byte("{ \"id\": 1, \"ok\": true }"))
	assert.Equal(t, `{"id":1,"ok":true}`, loose.Compact())

	summary := NewExecutionSummary([]byte(`{"id":1,"ok":true}`))
	assert.Equal(t, "{\n  \"id\": 1,\n  \"ok\": true\n}", summary.Pretty())

	var empty ExecutionSummary
	assert.Equal(t, "null", empty.Compact())
	assert.Equal(t, "null", empty.Pretty())
	out, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestNewExecutionSummaryCopies(t *testing.T) {
	raw := []byte(`{"id":1}`)
	summary := NewExecutionSummary(raw)
	raw[6] = '9'
	assert.Equal(t, "1", summary.ID())
}
