package domain

// Role identifies the single role held by an identity.
type Role int

const (
	RoleAdmin   Role = 1
	RoleTeacher Role = 2
	RoleStudent Role = 3
)

// Valid reports whether the role is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleTeacher:
		return "TEACHER"
	case RoleStudent:
		return "STUDENT"
	}
	return "UNKNOWN"
}
