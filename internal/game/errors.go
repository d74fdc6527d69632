package game

import "fmt"

// Reason is a machine-readable rejection code.
type Reason string

const (
	ReasonAlreadyActive    Reason = "already_active"
	ReasonNoActiveSession  Reason = "no_active_session"
	ReasonSessionEnded     Reason = "session_ended"
	ReasonEmptyWord        Reason = "empty_word"
	ReasonTooShort         Reason = "too_short"
	ReasonNotInDictionary  Reason = "not_in_dictionary"
	ReasonCannotForm       Reason = "cannot_form"
	ReasonAlreadySubmitted Reason = "already_submitted"
	ReasonAlreadyClaimed   Reason = "already_claimed"
)

// Rejection is returned for every expected failure of an engine operation.
// The engine state is unchanged whenever a Rejection is returned.
type Rejection struct {
	Reason  Reason
	Message string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return r.Message
}

// Is matches rejections by reason so callers can use errors.Is with the sentinels below.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Reason == r.Reason
}

// Sentinels for errors.Is. Their messages are the defaults used by the engine.
var (
	ErrAlreadyActive    = &Rejection{Reason: ReasonAlreadyActive, Message: "Game already in progress"}
	ErrNoActiveSession  = &Rejection{Reason: ReasonNoActiveSession, Message: "No active game"}
	ErrSessionEnded     = &Rejection{Reason: ReasonSessionEnded, Message: "Game has ended"}
	ErrEmptyWord        = &Rejection{Reason: ReasonEmptyWord, Message: "Please enter a word"}
	ErrTooShort         = &Rejection{Reason: ReasonTooShort, Message: "Word must be at least 3 letters long"}
	ErrNotInDictionary  = &Rejection{Reason: ReasonNotInDictionary, Message: "Word not found in dictionary"}
	ErrCannotForm       = &Rejection{Reason: ReasonCannotForm, Message: "Cannot form word from available letters"}
	ErrAlreadySubmitted = &Rejection{Reason: ReasonAlreadySubmitted, Message: "You already submitted this word"}
	ErrAlreadyClaimed   = &Rejection{Reason: ReasonAlreadyClaimed, Message: "Word has already been picked"}
)

func reject(base *Rejection, format string, args ...any) *Rejection {
	return &Rejection{Reason: base.Reason, Message: fmt.Sprintf(format, args...)}
}
