// Package access holds the permission predicates shared by the services.
package access

import "github.com/FACorreiaa/sidara-archive/internal/types"

// IsAdmin reports whether the caller has the admin role.
func IsAdmin(identity types.Identity) bool {
	return identity.Role == types.RoleAdmin
}

// CanMutate reports whether the caller may edit or delete the archive:
// admins may touch anything, users only what they uploaded.
func CanMutate(identity types.Identity, archive *types.Archive) bool {
	if archive == nil {
		return false
	}
	return IsAdmin(identity) || identity.ID == archive.UploaderID
}
