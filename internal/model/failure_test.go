package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorInfo
	}{
		{
			name: "server error uses body and status",
			err:  &ServerError{StatusCode: 500, Body: "boom"},
			want: ErrorInfo{Message: "boom", Status: StatusCode(500), Occasion: OccasionGetExecutionHistory},
		},
		{
			name: "no response",
			err:  &NoResponse{Err: errors.New("dial tcp: connection refused")},
			want: ErrorInfo{Message: "no response received", Status: StatusNA, Occasion: OccasionGetExecutionHistory},
		},
		{
			name: "client error uses raw message",
			err:  &ClientError{Err: errors.New("Network Error")},
			want: ErrorInfo{Message: "Network Error", Status: StatusNA, Occasion: OccasionGetExecutionHistory},
		},
		{
			name: "unclassified error falls to client tier",
			err:  errors.New("something odd"),
			want: ErrorInfo{Message: "something odd", Status: StatusNA, Occasion: OccasionGetExecutionHistory},
		},
		{
			name: "wrapped server error is still a server error",
			err:  fmt.Errorf("fetch: %w", &ServerError{StatusCode: 404, Body: "not found"}),
			want: ErrorInfo{Message: "not found", Status: StatusCode(404), Occasion: OccasionGetExecutionHistory},
		},
		{
			name: "response wins over request",
			err:  &NoResponse{Err: &ServerError{StatusCode: 502, Body: "bad gateway"}},
			want: ErrorInfo{Message: "bad gateway", Status: StatusCode(502), Occasion: OccasionGetExecutionHistory},
		},
		{
			name: "request wins over client error",
			err:  &ClientError{Err: &NoResponse{Err: errors.New("timeout")}},
			want: ErrorInfo{Message: "no response received", Status: StatusNA, Occasion: OccasionGetExecutionHistory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err, OccasionGetExecutionHistory)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyErrorKeepsOccasion(t *testing.T) {
	got := ClassifyError(&ClientError{Err: errors.New("bad url")}, "load something else")
	assert.Equal(t, "load something else", got.Occasion)
}

func TestStatusValueJSON(t *testing.T) {
	data, err := json.Marshal(ErrorInfo{Message: "boom", Status: StatusCode(500), Occasion: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"boom","status":500,"occasion":"x"}`, string(data))

	data, err = json.Marshal(ErrorInfo{Message: "no response received", Status: StatusNA, Occasion: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"no response received","status":"n/a","occasion":"x"}`, string(data))

	var info ErrorInfo
	require.NoError(t, json.Unmarshal([]byte(`{"message":"m","status":"n/a","occasion":"o"}`), &info))
	assert.Equal(t, StatusNA, info.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"message":"m","status":503,"occasion":"o"}`), &info))
	code, ok := info.Status.Code()
	assert.True(t, ok)
	assert.Equal(t, 503, code)

	assert.Error(t, json.Unmarshal([]byte(`{"status":"teapot"}`), &info))
}

func TestStatusValueString(t *testing.T) {
	assert.Equal(t, "n/a", StatusNA.String())
	assert.Equal(t, "500", StatusCode(500).String())
}

func TestFailureMessages(t *testing.T) {
	assert.Equal(t, "server responded with status 500: boom", (&ServerError{StatusCode: 500, Body: "boom"}).Error())
	assert.Equal(t, "server responded with status 503", (&ServerError{StatusCode: 503}).Error())
	assert.Equal(t, "no response received: timeout", (&NoResponse{Err: errors.New("timeout")}).Error())

	cause := errors.New("bad url")
	assert.ErrorIs(t, &ClientError{Err: cause}, cause)
	assert.ErrorIs(t, &NoResponse{Err: cause}, cause)
}
