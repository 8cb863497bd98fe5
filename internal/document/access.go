package document

// Access checks are evaluated against a freshly loaded Document record so
// grant changes take effect on the next join, not the next deploy.

// CanView reports whether the user may read the document: the owner or any
// user present in sharedWith, regardless of role.
func CanView(d *Document, userID string) bool {
	if d == nil || userID == "" {
		return false
	}
	if d.Owner == userID {
		return true
	}
	for _, g := range d.SharedWith {
		if g.UserID == userID {
			return true
		}
	}
	return false
}

// CanEdit reports whether the user may mutate the document: the owner or a
// sharedWith entry carrying the editor role.
func CanEdit(d *Document, userID string) bool {
	if d == nil || userID == "" {
		return false
	}
	if d.Owner == userID {
		return true
	}
	for _, g := range d.SharedWith {
		if g.UserID == userID && g.Role == RoleEditor {
			return true
		}
	}
	return false
}

// RoleFor resolves the effective role for a user, with ok=false when the user
// has no access at all. Owners are editors.
func RoleFor(d *Document, userID string) (Role, bool) {
	if !CanView(d, userID) {
		return "", false
	}
	if CanEdit(d, userID) {
		return RoleEditor, true
	}
	return RoleViewer, true
}
