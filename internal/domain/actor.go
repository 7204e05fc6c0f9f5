package domain

import "strings"

type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// CanManageBooking allows the guest who made the booking and admins.
func (a Actor) CanManageBooking(b Booking) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == b.UserID)
}

// CanManageListing allows the listing host and admins.
func (a Actor) CanManageListing(l Listing) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == l.HostID)
}
