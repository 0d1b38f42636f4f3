package shared

// Core platform permissions.
const (
	PermViewUsers   = "ViewUsers"
	PermAddUser     = "AddUser"
	PermUpdateUser  = "UpdateUser"
	PermDeleteUser  = "DeleteUser"
	PermManageUsers = "ManageUsers"
	PermBanUsers    = "BanUsers"

	PermViewRoles   = "ViewRoles"
	PermAddRole     = "AddRole"
	PermUpdateRole  = "UpdateRole"
	PermDeleteRole  = "DeleteRole"
	PermManageRoles = "ManageRoles"
)

// UserScopes lists all permissions related to user administration.
func UserScopes() []string {
	return []string{
		PermViewUsers,
		PermAddUser,
		PermUpdateUser,
		PermDeleteUser,
		PermManageUsers,
		PermBanUsers,
	}
}

// RoleScopes lists all permissions related to role administration.
func RoleScopes() []string {
	return []string{
		PermViewRoles,
		PermAddRole,
		PermUpdateRole,
		PermDeleteRole,
		PermManageRoles,
	}
}
