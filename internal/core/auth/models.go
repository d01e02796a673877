package auth

// Roles carried in the access token
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// Principal is the authenticated caller
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// CanWrite reports whether the caller may change ledger data
func (p *Principal) CanWrite() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RoleManager)
}

// NormalizeRole maps unknown or empty roles to viewer
func NormalizeRole(role string) string {
	switch role {
	case RoleAdmin, RoleManager, RoleViewer:
		return role
	default:
		return RoleViewer
	}
}
