package types

// StepStatus is the outcome reported by a release pipeline step
type StepStatus string

const (
	// StatusNothingToDo is returned when a step finished without a payload or was skipped
	StatusNothingToDo StepStatus = "nothing to do here"
	// StatusDone is returned when artifacts were uploaded
	StatusDone StepStatus = "done"
	// StatusNoop is returned by placeholder steps
	StatusNoop StepStatus = "Noop"
)

func (s StepStatus) String() string { return string(s) }
