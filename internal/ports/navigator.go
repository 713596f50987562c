package ports

import "github.com/BitForged/Compass/internal/domain"

// Navigator moves the application to another route.
type Navigator interface {
	Navigate(path string) (domain.Route, error)
}

// Notifier queues user facing notifications.
type Notifier interface {
	Add(message string, severity domain.Severity) domain.Notification
}

// NavigatorFunc adapts a function to Navigator. It lets the session be built
// before the router that depends on it.
type NavigatorFunc func(path string) (domain.Route, error)

func (f NavigatorFunc) Navigate(path string) (domain.Route, error) {
	return f(path)
}
