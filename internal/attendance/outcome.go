package attendance

// OutcomeKind tags the result of a command handler.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNotFound covers both unknown ids and records owned by someone else.
	OutcomeNotFound
	// OutcomeEmpty is a successful list with no records.
	OutcomeEmpty
	OutcomeInvalid
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeEmpty:
		return "empty"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailure:
		return "failure"
	}
	return "unknown"
}

// Outcome is what a handler hands back to the dispatcher, which maps it to exactly one reply.
type Outcome struct {
	Kind    OutcomeKind
	Record  *Record
	Records []Record
	// Message explains an OutcomeInvalid to the user.
	Message string
	// Err is the underlying cause of an OutcomeFailure; it is logged, never shown.
	Err error
}

func success(rec Record) Outcome { return Outcome{Kind: OutcomeSuccess, Record: &rec} }

func invalid(msg string) Outcome { return Outcome{Kind: OutcomeInvalid, Message: msg} }

func failure(err error) Outcome { return Outcome{Kind: OutcomeFailure, Err: err} }
