package rbac

// Core platform permissions, named <resource>:<action>. Route declarations
// reference these constants, so the operation-to-permission mapping is static
// and visible in one place.
const (
	PermUsersCreate = "users:create"
	PermUsersRead   = "users:read"
	PermUsersUpdate = "users:update"
	PermUsersDelete = "users:delete"

	PermRolesCreate = "roles:create"
	PermRolesRead   = "roles:read"
	PermRolesUpdate = "roles:update"
	PermRolesDelete = "roles:delete"

	PermPermissionsCreate = "permissions:create"
	PermPermissionsRead   = "permissions:read"
	PermPermissionsUpdate = "permissions:update"
	PermPermissionsDelete = "permissions:delete"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersCreate,
		PermUsersRead,
		PermUsersUpdate,
		PermUsersDelete,
		PermRolesCreate,
		PermRolesRead,
		PermRolesUpdate,
		PermRolesDelete,
		PermPermissionsCreate,
		PermPermissionsRead,
		PermPermissionsUpdate,
		PermPermissionsDelete,
	}
}
