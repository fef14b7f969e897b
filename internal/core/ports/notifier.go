package ports

import "github.com/agriconnect/marketplace-client/internal/core/domain"

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Notify(n domain.Notice)
}
