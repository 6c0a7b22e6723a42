// Package middleware wraps a ports.ClientStore to add behavior at the storage
// boundary, such as encryption at rest or read-side masking of personal data.
package middleware

import "github.com/aretw0/brokerdesk/pkg/ports"

// Middleware allows wrapping a ClientStore to add behavior.
type Middleware func(ports.ClientStore) ports.ClientStore

// Chain applies middlewares so the first one listed is the outermost.
func Chain(store ports.ClientStore, mws ...Middleware) ports.ClientStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
