package sim

import "fmt"

// SimError reports a numerical failure at a specific step. It is a soft
// failure: callers scoring candidate parameters treat it as a bad fit,
// not a fatal configuration mistake.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e *SimError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
