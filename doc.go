// Package store implements a reactive state container engine. A Registry
// owns named stores; each store holds a versioned state tree, derives cached
// getter values with path-level dependency tracking, and dispatches named
// actions with lifecycle telemetry. Persistence, metrics, and activity
// bridges attach through the plugin contract.
//
// The mutation model is single-goroutine cooperative: a store's state is
// owned by its Store and must only change through SetState, Patch, Mutate,
// or Reset. Registry-level lookups and definitions are safe for concurrent
// use.
package store
