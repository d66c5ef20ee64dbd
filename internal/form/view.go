package form

// View is the UI the controller drives. Implementations render commands
// however the platform needs; the controller never reads back decorations.
type View interface {
	// Value returns the current value of a form control.
	Value(field string) string

	ShowFieldError(field, message string)
	ClearFieldError(field string)

	// SetLoading disables the submit control and swaps its label for a
	// spinner, or restores it.
	SetLoading(loading bool)

	HideForm()
	ShowSuccess()
	ScrollIntoView(target, block string)
	SetScale(target string, scale float64)

	ShowBanner(id, message string)
	RemoveBanner(id string)

	// FocusFirstInput focuses the first input inside container.
	FocusFirstInput(container string)

	// PrepareReveal hides elements matching selector until Reveal.
	PrepareReveal(selector string)
	Reveal(target string)

	StateChanged(s State)
}
