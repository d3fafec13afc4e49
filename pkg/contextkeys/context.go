package contextkeys

// Gin context keys populated by the auth middleware.
const (
	UserIDKey  = "userID"
	UserName   = "userName"
	IsStaffKey = "isStaff"
)
