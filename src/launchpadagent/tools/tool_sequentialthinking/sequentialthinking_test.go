package tool_sequentialthinking

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/launchpad-agents/launchpad/src/aisdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestRecordChain(t *testing.T) {
	r := NewRecorder()

	state, err := r.Record(ThoughtInput{Thought: "first", ThoughtNumber: 1, TotalThoughts: 3, NextThoughtNeeded: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, state.ThoughtNumber)
	assert.Equal(t, 3, state.TotalThoughts)
	assert.True(t, state.NextThoughtNeeded)
	assert.Equal(t, 1, state.ThoughtHistoryLength)

	state, err = r.Record(ThoughtInput{Thought: "second", ThoughtNumber: 2, TotalThoughts: 3, NextThoughtNeeded: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, state.NextThoughtNeeded)
	assert.Equal(t, 2, state.ThoughtHistoryLength)
}

func TestRecordGrowsTotalOnOverrun(t *testing.T) {
	r := NewRecorder()

	state, err := r.Record(ThoughtInput{Thought: "extra", ThoughtNumber: 5, TotalThoughts: 3, NextThoughtNeeded: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, 5, state.TotalThoughts)
}

func TestRecordValidation(t *testing.T) {
	r := NewRecorder()

	tests := []struct {
		name  string
		input ThoughtInput
	}{
		{name: "zero thought number", input: ThoughtInput{Thought: "x", ThoughtNumber: 0, TotalThoughts: 1, NextThoughtNeeded: boolPtr(true)}},
		{name: "zero total", input: ThoughtInput{Thought: "x", ThoughtNumber: 1, TotalThoughts: 0, NextThoughtNeeded: boolPtr(true)}},
		{name: "nil next flag", input: ThoughtInput{Thought: "x", ThoughtNumber: 1, TotalThoughts: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Record(tt.input)
			assert.Error(t, err)
		})
	}
	assert.Equal(t, 0, r.HistoryLength())
}

func TestRecordBranches(t *testing.T) {
	r := NewRecorder()

	_, err := r.Record(ThoughtInput{Thought: "main", ThoughtNumber: 1, TotalThoughts: 2, NextThoughtNeeded: boolPtr(true)})
	require.NoError(t, err)

	state, err := r.Record(ThoughtInput{
		Thought: "alt", ThoughtNumber: 2, TotalThoughts: 2, NextThoughtNeeded: boolPtr(true),
		BranchFromThought: 1, BranchID: "alt-path",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alt-path"}, state.Branches)

	state, err = r.Record(ThoughtInput{
		Thought: "alt continued", ThoughtNumber: 3, TotalThoughts: 3, NextThoughtNeeded: boolPtr(false),
		BranchFromThought: 1, BranchID: "alt-path",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alt-path"}, state.Branches, "branch ids stay unique")
	assert.Equal(t, 3, state.ThoughtHistoryLength)
}

func TestToolExecute(t *testing.T) {
	tool, err := Tool(nil)
	require.NoError(t, err)

	call := &aisdk.ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: aisdk.FunctionCall{
			Name:      Name,
			Arguments: json.RawMessage(`{"thought":"plan the trip","thoughtNumber":1,"totalThoughts":2,"nextThoughtNeeded":true}`),
		},
	}
	resp, err := tool.Execute(context.Background(), call)
	require.NoError(t, err)
	require.False(t, resp.IsError, string(resp.Content))

	var state ThoughtState
	require.NoError(t, json.Unmarshal(resp.Content, &state))
	assert.Equal(t, 1, state.ThoughtNumber)
	assert.True(t, state.NextThoughtNeeded)
}

func TestToolExecuteMissingFlag(t *testing.T) {
	tool, err := Tool(nil)
	require.NoError(t, err)

	call := &aisdk.ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: aisdk.FunctionCall{
			Name:      Name,
			Arguments: json.RawMessage(`{"thought":"x","thoughtNumber":1,"totalThoughts":1}`),
		},
	}
	resp, err := tool.Execute(context.Background(), call)
	require.NoError(t, err)
	assert.True(t, resp.IsError)
	assert.Contains(t, string(resp.Content), "nextThoughtNeeded")
}
