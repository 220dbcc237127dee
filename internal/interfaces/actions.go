package interfaces

// SessionActions is the set of user-initiated operations the UI bridge can
// invoke on the engine. Every method is safe to call from any goroutine.
type SessionActions interface {
	// SubmitMessage sends one user turn. Empty or whitespace-only input is
	// ignored; a call while an exchange is open is ignored.
	SubmitMessage(text string)

	NextAttraction()
	PreviousAttraction()
	ToggleCurrentAttraction()

	// ConfirmSelections submits the selected attractions, or prompts when
	// nothing is selected.
	ConfirmSelections()

	// Reset clears the backend session and restores the initial UI.
	Reset()
}
