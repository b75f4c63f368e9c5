package interfaces

// Connectivity is the online/offline signal of the process
type Connectivity interface {
	Online() bool

	// Watch registers fn to be called with the new value on every transition.
	// The returned function unregisters it.
	Watch(fn func(online bool)) (unwatch func())
}
