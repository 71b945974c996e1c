package optimize

import "fmt"

// ContractViolationError reports an evaluation routine breaking its contract:
// wrong result count or a non-numeric objective. The offending round is
// skipped (no tell, no checkpoint advance) and the loop continues, since one
// bad batch must not destroy accumulated progress.
type ContractViolationError struct {
	Round  int
	Reason string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("evaluation contract violation in round %d: %s", e.Round, e.Reason)
}
