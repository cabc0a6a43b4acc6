package authority

// Capability is a downstream layer that needs permission to run.
type Capability string

const (
	CapabilityPlanning  Capability = "planning"
	CapabilityExecution Capability = "execution"
)

// BlockedByDecisionCore names the layer that denies a capability.
const BlockedByDecisionCore = "Decision Core"

// AdmissionResult is the outcome of asking an Authority for a capability.
// A denial is a normal result, not an error.
type AdmissionResult struct {
	Admitted   bool
	Capability Capability
	Reason     string
	BlockedBy  string
}

// CheckAdmission decides whether capability c may run under a.
// Callers must check admission before doing any work for c.
func CheckAdmission(a Authority, c Capability) AdmissionResult {
	switch c {
	case CapabilityPlanning:
		if a.PlanningAllowed() {
			return AdmissionResult{Admitted: true, Capability: c}
		}
		return AdmissionResult{
			Capability: c,
			Reason:     "Planning forbidden by Decision Core",
			BlockedBy:  BlockedByDecisionCore,
		}

	case CapabilityExecution:
		return AdmissionResult{
			Capability: c,
			Reason:     "Execution disabled in current system version",
			BlockedBy:  BlockedByDecisionCore,
		}

	default:
		return AdmissionResult{
			Capability: c,
			Reason:     "unknown capability " + string(c),
			BlockedBy:  BlockedByDecisionCore,
		}
	}
}
