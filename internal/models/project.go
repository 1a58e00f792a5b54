package models

// Project member roles
const (
	RoleOwner       = "owner"
	RoleEditor      = "editor"
	RoleContributor = "contributor"
	RoleViewer      = "viewer"
)

// Permission is an action tier checked against project membership
type Permission string

const (
	PermissionEdit    Permission = "edit"
	PermissionDelete  Permission = "delete"
	PermissionPublish Permission = "publish"
)

// PermissionRoles lists the member roles granted each permission tier
var PermissionRoles = map[Permission]map[string]bool{
	PermissionEdit:    {RoleOwner: true, RoleEditor: true, RoleContributor: true},
	PermissionDelete:  {RoleOwner: true, RoleEditor: true},
	PermissionPublish: {RoleOwner: true, RoleEditor: true},
}

// RoleAllows reports whether role holds the permission tier
func RoleAllows(role string, p Permission) bool {
	return PermissionRoles[p][role]
}
