package auth

import "pickcoordinator/internal/models"

// Capability names an operation a principal may attempt. These mirror
// pickstate.Operation plus the two read/validate verbs that carry no state
// transition.
type Capability string

const (
	CapCreate           Capability = "create"
	CapDelete           Capability = "delete"
	CapCancel           Capability = "cancel"
	CapApprove          Capability = "approve"
	CapStart            Capability = "start"
	CapPause            Capability = "pause"
	CapResume           Capability = "resume"
	CapRelease          Capability = "release"
	CapUpdateItem       Capability = "update_item"
	CapSetItemShortage  Capability = "set_item_shortage"
	CapSubmit           Capability = "submit"
	CapManagePrincipals Capability = "manage_principals"
)

// ownerRestricted is the set of capabilities a requester may only exercise
// against a request it created; everything else granted to requester is
// unrestricted within the set it's granted at all.
var ownerRestricted = map[Capability]bool{
	CapCreate:  true,
	CapDelete:  true,
	CapCancel:  true,
	CapApprove: true,
}

// roleCapabilities lists what each role may attempt at all, before the
// ownership check. The roles are not totally ordered — a picker has no
// access to delete/approve, a requester has no access to start/submit —
// so this is a table, not an integer-level comparison.
var roleCapabilities = map[models.Role]map[Capability]bool{
	models.RoleRequester: {
		CapCreate:  true,
		CapDelete:  true,
		CapCancel:  true,
		CapApprove: true,
	},
	models.RolePicker: {
		CapStart:           true,
		CapPause:           true,
		CapResume:          true,
		CapRelease:         true,
		CapUpdateItem:      true,
		CapSetItemShortage: true,
		CapSubmit:          true,
	},
}

// Can reports whether a principal with the given role may exercise cap.
// isOwner is ignored for capabilities that aren't owner-restricted; admins
// bypass both the role table and the ownership check.
func Can(role models.Role, cap Capability, isOwner bool) bool {
	if role == models.RoleAdmin {
		return true
	}
	if !roleCapabilities[role][cap] {
		return false
	}
	if ownerRestricted[cap] {
		return isOwner
	}
	return true
}
