package runner

import (
	"fmt"

	"github.com/agentic-research/proflow/api"
	"github.com/agentic-research/proflow/internal/tree"
)

// CommitStrategy applies a step's outputs to the state, threading each
// write into the next.
type CommitStrategy func(state any, outputs []api.Output, result any) (any, error)

// CommitValues writes each output's precomputed Value to its To path.
func CommitValues(state any, outputs []api.Output, result any) (any, error) {
	for _, o := range outputs {
		next, err := writeOutput(state, o.To, o.Value)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

// CommitResolved resolves each output's From path against the result and
// writes what it finds. "_result" (or an empty From) is the whole result; a
// leaf result stands for itself whatever the From path says.
func CommitResolved(state any, outputs []api.Output, result any) (any, error) {
	for _, o := range outputs {
		v, err := ResolveResult(result, o.From)
		if err != nil {
			return nil, fmt.Errorf("output %s -> %s: %w", o.From, o.To, err)
		}
		next, err := writeOutput(state, o.To, v)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

// ResolveResult returns the part of a step result addressed by from.
func ResolveResult(result any, from string) (any, error) {
	if from == "" || from == api.ResultPath {
		return result, nil
	}
	if tree.KindOf(result) == tree.KindLeaf {
		return result, nil
	}
	return tree.Get(result, from)
}

func writeOutput(state any, to string, v any) (any, error) {
	p, err := tree.ParsePath(to)
	if err != nil {
		return nil, err
	}
	return tree.Write(state, p, v)
}

func commitStrategy(p *api.Process) CommitStrategy {
	if p.FormatOutput {
		return CommitResolved
	}
	return CommitValues
}
