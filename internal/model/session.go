package model

// StartSessionRequest is the payload for starting a quiz attempt.
type StartSessionRequest struct {
	QuizID string `json:"quiz_id" binding:"required,uuid"`
}

// SelectOptionRequest is the payload for selecting an answer choice.
type SelectOptionRequest struct {
	Option string `json:"option" binding:"required,max=2000"`
}

// Identity is the caller as supplied by the auth provider.
// An empty UserID is an anonymous caller whose results are not attributable.
type Identity struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Anonymous reports whether the caller is unauthenticated.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}
