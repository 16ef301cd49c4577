package runner

// State is the retrieval state of one item.
type State string

const (
	StatePending      State = "pending"
	StateFetchingBuy  State = "fetching_buy"
	StateFetchingSell State = "fetching_sell"
	StateMerging      State = "merging"
	StateWritten      State = "written"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateWritten || s == StateFailed
}

// next lists the allowed transitions.
var next = map[State][]State{
	StatePending:      {StateFetchingBuy},
	StateFetchingBuy:  {StateFetchingSell, StateFailed},
	StateFetchingSell: {StateMerging, StateFailed},
	StateMerging:      {StateWritten, StateFailed},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to State) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}
