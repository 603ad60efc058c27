package complaint

var transitions = map[Status][]Status{
	StatusNew:        {StatusProcessing, StatusClosed},
	StatusProcessing: {StatusDone, StatusClosed},
	StatusDone:       {StatusClosed},
	StatusClosed:     {},
}

// CanTransition reports whether an administrator may move a complaint from one status to another.
// Without strict, any recognized status is accepted. Keeping the current status is always allowed.
func CanTransition(from, to Status, strict bool) bool {
	if !to.Valid() {
		return false
	}
	if from == to || !strict {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
