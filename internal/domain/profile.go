package domain

import "time"

// UserRole enumerates the roles a profile can hold.
type UserRole string

const (
	RoleReporter    UserRole = "reporter"
	RoleMaintenance UserRole = "maintenance"
	RoleHousekeeper UserRole = "housekeeper"
	RoleSubDirector UserRole = "sub_director"
	RoleAdmin       UserRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleReporter, RoleMaintenance, RoleHousekeeper, RoleSubDirector, RoleAdmin:
		return true
	}
	return false
}

// AssignableRoles lists roles that may receive ticket assignments.
var AssignableRoles = []UserRole{RoleMaintenance, RoleAdmin, RoleSubDirector}

// Profile is a person using the system: reporter, technician or manager.
type Profile struct {
	ID             string
	FullName       string
	Email          string
	PasswordHash   string
	Role           UserRole
	TelegramChatID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
