package usercontext

// Session and Locals keys shared between the controllers and the middleware
// chain. The values are part of stored session state; changing one logs
// every active session out.
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
)
