package domain

// NavigationState is the navigator's externally visible state.
type NavigationState struct {
	CurrentView View
	// ChosenRole is the role picked on onboarding; it survives until logout.
	ChosenRole      Role
	SelectedProduct *Product
	Session         Session
}

// Transition describes one accepted move between views.
type Transition struct {
	From View
	To   View
	// ResetScroll is always true; renderers scroll to the top on every transition.
	ResetScroll bool
}
