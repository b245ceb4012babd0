package state

// State identifies a step of a multi-step conversation.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Session is the conversation state of one user.
type Session struct {
	State State
	Data  map[string]any
}
