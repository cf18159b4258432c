// Package tool_sequentialthinking gives the model a structured scratchpad:
// each call records one numbered thought, with optional revisions of earlier
// thoughts and named branches, and reports the state of the chain back.
package tool_sequentialthinking

import (
	"context"
	"fmt"
	"sync"

	"github.com/launchpad-agents/launchpad/src/agent"
)

// Tool name constant
const Name = "sequential_thinking"

const description = `A tool for dynamic and reflective problem-solving through thoughts.

Each call records one thought. Number thoughts sequentially and set nextThoughtNeeded to false on the final one. You can revise an earlier thought (isRevision + revisesThought) or branch off one (branchFromThought + branchId) when a line of reasoning needs rework. totalThoughts is an estimate and may grow as you go.`

// ThoughtInput represents the parameters for sequential_thinking
type ThoughtInput struct {
	Thought           string `json:"thought" required:"true" description:"The current thinking step"`
	ThoughtNumber     int    `json:"thoughtNumber" required:"true" description:"Current thought number (starts at 1)"`
	TotalThoughts     int    `json:"totalThoughts" required:"true" description:"Estimated total thoughts needed"`
	NextThoughtNeeded *bool  `json:"nextThoughtNeeded" required:"true" description:"Whether another thought step is needed"`
	IsRevision        bool   `json:"isRevision,omitempty" description:"Whether this revises previous thinking"`
	RevisesThought    int    `json:"revisesThought,omitempty" description:"Which thought number is being reconsidered"`
	BranchFromThought int    `json:"branchFromThought,omitempty" description:"Thought number this branches from"`
	BranchID          string `json:"branchId,omitempty" description:"Identifier of the branch"`
	NeedsMoreThoughts bool   `json:"needsMoreThoughts,omitempty" description:"Whether more thoughts are needed beyond the estimate"`
}

// ThoughtState is reported back to the model after each thought.
type ThoughtState struct {
	ThoughtNumber        int      `json:"thoughtNumber"`
	TotalThoughts        int      `json:"totalThoughts"`
	NextThoughtNeeded    bool     `json:"nextThoughtNeeded"`
	Branches             []string `json:"branches"`
	ThoughtHistoryLength int      `json:"thoughtHistoryLength"`
}

// Recorder accumulates the thought chain. One recorder is shared by all
// calls within a process, matching the scratchpad's cross-request lifetime.
type Recorder struct {
	mu          sync.Mutex
	history     []ThoughtInput
	branches    map[string][]ThoughtInput
	branchOrder []string
}

// NewRecorder creates an empty thought recorder.
func NewRecorder() *Recorder {
	return &Recorder{branches: make(map[string][]ThoughtInput)}
}

// Record validates and stores one thought, returning the chain state.
func (r *Recorder) Record(input ThoughtInput) (*ThoughtState, error) {
	if input.ThoughtNumber < 1 {
		return nil, fmt.Errorf("invalid thoughtNumber: must be at least 1")
	}
	if input.TotalThoughts < 1 {
		return nil, fmt.Errorf("invalid totalThoughts: must be at least 1")
	}
	if input.NextThoughtNeeded == nil {
		return nil, fmt.Errorf("invalid nextThoughtNeeded: must be a boolean")
	}

	// The estimate grows when the chain overruns it.
	if input.ThoughtNumber > input.TotalThoughts {
		input.TotalThoughts = input.ThoughtNumber
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, input)
	if input.BranchFromThought > 0 && input.BranchID != "" {
		if _, ok := r.branches[input.BranchID]; !ok {
			r.branchOrder = append(r.branchOrder, input.BranchID)
		}
		r.branches[input.BranchID] = append(r.branches[input.BranchID], input)
	}

	branches := make([]string, len(r.branchOrder))
	copy(branches, r.branchOrder)
	return &ThoughtState{
		ThoughtNumber:        input.ThoughtNumber,
		TotalThoughts:        input.TotalThoughts,
		NextThoughtNeeded:    *input.NextThoughtNeeded,
		Branches:             branches,
		ThoughtHistoryLength: len(r.history),
	}, nil
}

// HistoryLength returns the number of recorded thoughts.
func (r *Recorder) HistoryLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// Tool returns the sequential_thinking tool over a shared recorder.
func Tool(recorder *Recorder) (agent.Tool, error) {
	if recorder == nil {
		recorder = NewRecorder()
	}
	handler := func(ctx context.Context, input ThoughtInput) (*ThoughtState, error) {
		return recorder.Record(input)
	}
	return agent.NewGenericTool(Name, description, handler)
}
