package user

import "github.com/volatiletech/null/v8"

// Roles
const (
	RoleAdmin           = "admin"      // super-admin: every legislator scope
	RoleLegislatorAdmin = "admin_aleg" // admin scoped to one legislator
	RoleVolunteer       = "relawan"
	RoleUser            = "user"
)

var (
	AdminRoles = []string{RoleAdmin, RoleLegislatorAdmin}
	AllRoles   = []string{RoleAdmin, RoleLegislatorAdmin, RoleVolunteer, RoleUser}

	Roles = []Role{
		{Name: "User", Value: RoleUser},
		{Name: "Relawan", Value: RoleVolunteer},
		{Name: "Admin Anggota Legislatif", Value: RoleLegislatorAdmin},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is the acting identity, as asserted by the (external) authentication system.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Role         string     `json:"role"`
	LegislatorID null.Int64 `json:"legislator_id"`
}

func (u User) IsSuperAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsLegislatorAdmin() bool {
	return u.Role == RoleLegislatorAdmin
}

func (u User) IsAdmin() bool {
	return u.IsSuperAdmin() || u.IsLegislatorAdmin()
}

// CanManage reports whether u may administer a record attached to legislatorID.
// Super-admins manage everything; legislator admins only records of their own legislator.
func (u User) CanManage(legislatorID null.Int64) bool {
	if u.IsSuperAdmin() {
		return true
	}
	if !u.IsLegislatorAdmin() {
		return false
	}
	return u.LegislatorID.Valid && legislatorID.Valid && u.LegislatorID.Int64 == legislatorID.Int64
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
