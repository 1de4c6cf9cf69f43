package middlewares

// gin context keys shared between middlewares and handlers
const (
	CtxRequestID = "requestID"
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRole      = "auth.role"
)
