package discovery

import "fmt"

// State is a step of the per-company discovery ladder.
type State int

const (
	StateInit State = iota
	StateCandidateSelected
	StatePageFetched
	StateValidated
	StatePortalFollowed
	StateExtracted
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateInit:              "init",
	StateCandidateSelected: "candidate_selected",
	StatePageFetched:       "page_fetched",
	StateValidated:         "validated",
	StatePortalFollowed:    "portal_followed",
	StateExtracted:         "extracted",
	StateSucceeded:         "succeeded",
	StateFailed:            "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Transition is one recorded edge of a discovery session.
type Transition struct {
	From   State
	To     State
	Detail string
}

func (t Transition) String() string {
	if t.Detail == "" {
		return fmt.Sprintf("%s -> %s", t.From, t.To)
	}
	return fmt.Sprintf("%s -> %s (%s)", t.From, t.To, t.Detail)
}
