package middleware

type contextKey string

const (
	// RequestIDKey is the context key under which the request correlation
	// ID is stored.
	RequestIDKey contextKey = "request_id"
)
