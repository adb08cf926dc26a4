package api

// Messages shown to users alongside a search status.
const (
	IdleMessage    = "Enter a search term above to find what you're looking for."
	FailedMessage  = "Something went wrong while searching. Please try again."
	TimeoutMessage = "The search took too long to respond. Please try again."
)
