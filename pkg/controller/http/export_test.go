package http

var (
	PanicRecoveryMiddleware = panicRecoveryMiddleware
	RequestIDMiddleware     = requestIDMiddleware
	AuthMiddleware          = authMiddleware
	RequireAdmin            = requireAdmin
)

var LoggingMiddleware = loggingMiddleware
