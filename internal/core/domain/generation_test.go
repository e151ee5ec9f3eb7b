package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in       string
		want     TaskStatus
		terminal bool
	}{
		{"pending", TaskStatusPending, false},
		{"succeeded", TaskStatusSucceeded, true},
		{"failed", TaskStatusFailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			st, err := ParseTaskStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st)
			assert.Equal(t, tt.terminal, st.IsTerminal())
		})
	}
}

func TestParseTaskStatus_Unknown(t *testing.T) {
	for _, in := range []string{"", "running", "SUCCEEDED", "cancelled"} {
		_, err := ParseTaskStatus(in)
		assert.ErrorIs(t, err, ErrInvariant, "status %q", in)
	}
}

func TestObjectState_DecodeRejectsUnknownStatus(t *testing.T) {
	var state ObjectState
	err := json.Unmarshal([]byte(`{"tasks":[{"version":"1","status":"running"}]}`), &state)

	require.Error(t, err)
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, derr.Message, "running")
}

func TestObjectState_DecodeRejectsNonStringStatus(t *testing.T) {
	var state ObjectState
	err := json.Unmarshal([]byte(`{"tasks":[{"version":"1","status":3}]}`), &state)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestObjectState_Decode(t *testing.T) {
	var state ObjectState
	err := json.Unmarshal([]byte(`{"tasks":[
		{"version":"1","status":"succeeded"},
		{"version":"2","status":"failed","error":"boom"},
		{"version":"3","status":"pending"}]}`), &state)
	require.NoError(t, err)

	require.Len(t, state.Tasks, 3)
	assert.Equal(t, VersionEntry{Version: "2", Status: TaskStatusFailed, Error: "boom"}, state.Tasks[1])
}

func TestObjectState_ResolveVersion_Succeeded(t *testing.T) {
	state := &ObjectState{Tasks: []VersionEntry{
		{Version: "v0", Status: TaskStatusFailed, Error: "old"},
		{Version: "v1", Status: TaskStatusSucceeded},
	}}

	entry, err := state.ResolveVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusSucceeded, entry.Status)
}

func TestObjectState_ResolveVersion_Failed(t *testing.T) {
	state := &ObjectState{Tasks: []VersionEntry{{Version: "v1", Status: TaskStatusFailed, Error: "boom"}}}

	_, err := state.ResolveVersion("v1")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.EqualError(t, err, "boom")
}

func TestObjectState_ResolveVersion_FailedWithoutReason(t *testing.T) {
	state := &ObjectState{Tasks: []VersionEntry{{Version: "v1", Status: TaskStatusFailed}}}

	_, err := state.ResolveVersion("v1")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.EqualError(t, err, "generation failed")
}

func TestObjectState_ResolveVersion_NotFinal(t *testing.T) {
	state := &ObjectState{Tasks: []VersionEntry{{Version: "v1", Status: TaskStatusPending}}}

	_, err := state.ResolveVersion("v1")
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "not final")
}

func TestObjectState_ResolveVersion_Missing(t *testing.T) {
	state := &ObjectState{Tasks: []VersionEntry{{Version: "v0", Status: TaskStatusSucceeded}}}

	_, err := state.ResolveVersion("v1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "v1")
}

func TestObjectState_ResolveVersion_EmptyState(t *testing.T) {
	_, err := (&ObjectState{}).ResolveVersion("v1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerationTask_Props(t *testing.T) {
	task := &GenerationTask{ID: "t1", Version: "1", Name: "vase", Description: "an antique vase"}

	b, err := json.Marshal(task.Props())
	require.NoError(t, err)
	assert.JSONEq(t, `{"object_name":"vase","object_description":"an antique vase"}`, string(b))
}
