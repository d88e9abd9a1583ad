package world

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when operating on an entity that does not exist.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotFound is returned when an entity does not carry the requested component.
	ErrComponentNotFound = eris.New("entity does not have component")

	// ErrComponentNotRegistered is returned when using a component type that was never registered.
	ErrComponentNotRegistered = eris.New("component type is not registered")
)
