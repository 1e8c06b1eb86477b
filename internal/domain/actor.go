package domain

// SubjectType differentiates user vs technician tokens.
type SubjectType string

const (
	SubjectTypeUser       SubjectType = "USER"
	SubjectTypeTechnician SubjectType = "TECHNICIAN"
)

// Actor is the authenticated principal passed explicitly into every
// operation that needs an authorization decision. ManagedAreaID is set when
// the technician is the chief of an area.
type Actor struct {
	Subject       SubjectType
	User          *User
	Technician    *Technician
	ManagedAreaID *string
}

// IsAdmin reports whether the actor is an administrator account.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.User != nil && a.User.Role == UserRoleAdmin
}

// IsChief reports whether the actor leads an area.
func (a *Actor) IsChief() bool {
	return a != nil && a.Technician != nil && a.ManagedAreaID != nil
}

// ChiefOf reports whether the actor is the chief of the given area.
func (a *Actor) ChiefOf(areaID string) bool {
	return a.IsChief() && *a.ManagedAreaID == areaID
}
