package models

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Viewer is the identity of the session owner. It is passed explicitly to every
// operation that depends on who is looking at the timeline.
type Viewer struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// CanModerate reports whether the viewer may delete entries authored by others.
func (v Viewer) CanModerate() bool {
	return v.Role == RoleModerator || v.Role == RoleAdmin
}

// ViewerState is the per-entry state resolved for one viewer.
type ViewerState struct {
	Reaction   *ReactionType
	Bookmarked bool
}
