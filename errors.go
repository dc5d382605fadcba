package store

import "errors"

var (
	// ErrStoreIDRequired indicates a store definition with an empty id.
	ErrStoreIDRequired = errors.New("store: id must be provided")
	// ErrStateFactoryRequired indicates a store definition without a state
	// factory.
	ErrStateFactoryRequired = errors.New("store: state factory must be provided")
	// ErrStoreNotFound indicates a lookup for an id no store was defined
	// under.
	ErrStoreNotFound = errors.New("store: store not found")
	// ErrGetterNotFound indicates a read of an unregistered getter.
	ErrGetterNotFound = errors.New("store: getter not found")
	// ErrActionNotFound indicates a dispatch of an unregistered action.
	ErrActionNotFound = errors.New("store: action not found")
	// ErrGetterCycle indicates getters that read each other recursively.
	ErrGetterCycle = errors.New("store: getter dependency cycle")
	// ErrPluginNameRequired indicates a plugin with an empty name.
	ErrPluginNameRequired = errors.New("store: plugin name must be provided")
	// ErrNoEvaluator indicates an expression getter without a usable
	// evaluator.
	ErrNoEvaluator = errors.New("store: evaluator not configured")
)
