package scrape

type Outcome int

const (
	Success Outcome = iota
	Archived
	Blocked
	Timeout
	TransientError
	PermanentError
)

var outcomeNames = map[Outcome]string{
	Success:        "success",
	Archived:       "archived",
	Blocked:        "blocked",
	Timeout:        "timeout",
	TransientError: "transient_error",
	PermanentError: "permanent_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Retryable reports whether another fetch-extract cycle can change the outcome.
func (o Outcome) Retryable() bool {
	return o == Timeout || o == TransientError
}

