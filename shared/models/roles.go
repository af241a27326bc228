package models

import "strings"

// RolesForPath derives the roles a new member gets from the URI that created
// them. Owner sign-up and owner social login live under /owners/.
func RolesForPath(path string) []string {
	if strings.HasPrefix(path, "/owners/") || strings.Contains(path, "/api/owners") {
		return []string{RoleOwner}
	}
	return []string{RoleUser}
}
