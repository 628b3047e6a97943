package domain

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

// Session is the authenticated caller. Every service call receives one
// explicitly.
type Session struct {
	Username string
	Role     Role
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

type LoginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRes struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

type ChangePasswordReq struct {
	Current string `json:"current" validate:"required"`
	New     string `json:"new" validate:"required,min=4"`
	Confirm string `json:"confirm" validate:"required,eqfield=New"`
}
