package provision

type State int

const (
	Unprovisioned State = iota
	Provisioning
	Provisioned
	Destroying
	Destroyed
	Failed
)

func (s State) String() string {
	switch s {
	case Unprovisioned:
		return "unprovisioned"
	case Provisioning:
		return "provisioning"
	case Provisioned:
		return "provisioned"
	case Destroying:
		return "destroying"
	case Destroyed:
		return "destroyed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var transitions = map[State][]State{
	Unprovisioned: {Provisioning},
	Provisioning:  {Provisioned, Failed},
	Provisioned:   {Destroying},
	Destroying:    {Destroyed, Failed},
	// cleanup stays possible after a failed bring-up so guests that did come up are
	// still destroyed
	Failed: {Destroying},
}

func (s State) canTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
