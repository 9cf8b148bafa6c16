// Package types defines the configuration and the standard error values shared
// by the flatten engine, the collection views and the record store.
//
// Errors are sentinels; callers match them with errors.Is because every layer
// wraps them with context.
package types
