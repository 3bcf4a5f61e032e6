package funnel

import (
	"github.com/looplab/fsm"
)

// NewStepMachine builds the primary step machine seeded at the given
// step. NamePrompt, Interlude, Feedback, and Withdraw are overlays on
// top of these states, not states of the machine itself.
func NewStepMachine(initial Step) *fsm.FSM {
	events := fsm.Events{
		{Name: EventSubmitName, Src: []string{string(StepWelcome)}, Dst: string(StepExplainer)},
		{Name: EventBeginEvaluating, Src: []string{string(StepExplainer)}, Dst: string(StepEvaluating)},
		{Name: EventCompleteFunnel, Src: []string{string(StepEvaluating)}, Dst: string(StepComplete)},
		{Name: EventRestart, Src: []string{string(StepComplete)}, Dst: string(StepWelcome)},
	}

	return fsm.NewFSM(string(initial), events, fsm.Callbacks{})
}
