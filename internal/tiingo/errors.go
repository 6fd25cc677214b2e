package tiingo

import "fmt"

// CredentialError reports an unreadable or empty API token at client
// construction. It is fatal: no client is returned alongside it.
type CredentialError struct {
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("credential %s: empty token", e.Path)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ConnectionError reports a failed health-check probe. It is carried inside
// ConnectionStatus and never raised past the TestConnection boundary.
type ConnectionError struct {
	Status int
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection test failed: %v", e.Err)
	}
	return fmt.Sprintf("connection test failed: status %d", e.Status)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FetchError reports a per-ticker fetch failure (transport, HTTP status, or
// parse). It is logged and absorbed by the batch, never escalated.
type FetchError struct {
	Ticker string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Ticker, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.Ticker, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }
