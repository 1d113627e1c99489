package model

import "fmt"

// OutcomeStatus classifies how a unit of work (item, ticker, subscriber) ended.
type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "OK"
	OutcomeDegraded OutcomeStatus = "DEGRADED"
	OutcomeFailed   OutcomeStatus = "FAILED"
)

// Outcome is the explicit result of a pipeline stage. Degraded and failed
// outcomes carry the error that caused them; the value produced alongside is
// always usable.
type Outcome struct {
	Status OutcomeStatus
	Stage  string
	Err    error
}

func OK(stage string) Outcome { return Outcome{Status: OutcomeOK, Stage: stage} }

func Degraded(stage string, err error) Outcome {
	return Outcome{Status: OutcomeDegraded, Stage: stage, Err: err}
}

func Failed(stage string, err error) Outcome {
	return Outcome{Status: OutcomeFailed, Stage: stage, Err: err}
}

// Degrade downgrades an OK outcome, keeping the first error seen.
func (o Outcome) Degrade(err error) Outcome {
	if o.Status == OutcomeOK {
		o.Status = OutcomeDegraded
	}
	if o.Err == nil {
		o.Err = err
	}
	return o
}

func (o Outcome) Succeeded() bool { return o.Status != OutcomeFailed }

func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("%s@%s: %v", o.Status, o.Stage, o.Err)
	}
	return fmt.Sprintf("%s@%s", o.Status, o.Stage)
}
