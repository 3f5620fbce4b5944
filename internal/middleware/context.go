package middleware

// contextKey is the private type for context values set by this package.
type contextKey string
