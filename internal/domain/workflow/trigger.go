package workflow

// Trigger represents an operation that can cause a state transition.
type Trigger string

const (
	TriggerEdit    Trigger = "EDIT"
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerDelete  Trigger = "DELETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
