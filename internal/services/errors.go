package services

import "fmt"

// NotConfiguredError is returned by a provider that cannot serve requests
// until the operator configures it.
type NotConfiguredError struct{ Message string }

func (e *NotConfiguredError) Error() string { return e.Message }

// ProviderError wraps a failed call to a model provider.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the request never got a response
	Cause      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s error: status %d", e.Provider, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s error: %v", e.Provider, e.Cause)
	default:
		return e.Provider + " error"
	}
}

func (e *ProviderError) Unwrap() error { return e.Cause }
