package adapter

import "errors"

var (
	// ErrUnauthorized is returned when the server rejects the credentials.
	ErrUnauthorized = errors.New("client unauthorized")
	// ErrTransport is returned when the server cannot be reached or the
	// connection breaks.
	ErrTransport = errors.New("transport failure")
	// ErrNotFound is returned for unknown accounts, folders or blobs.
	ErrNotFound = errors.New("not found")
	// ErrRequestTooLarge is returned when a request exceeds a server limit.
	ErrRequestTooLarge = errors.New("request too large")
	// ErrServer is returned for any other server-side rejection.
	ErrServer = errors.New("server error")
	// ErrUnsupportedProtocol is returned by NewMailTransport for unknown
	// protocols.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)
