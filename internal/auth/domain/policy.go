package domain

// Operation is a user-facing action subject to role-based authorization.
type Operation string

const (
	OperationReadShared  Operation = "read_shared"
	OperationReadOwn     Operation = "read_own"
	OperationUpload      Operation = "upload"
	OperationShare       Operation = "share"
	OperationDelete      Operation = "delete"
	OperationManageUsers Operation = "manage_users"
)

var policy = map[Operation][]Role{
	OperationReadShared:  {RoleGuest, RoleRegular, RoleAdmin},
	OperationReadOwn:     {RoleRegular, RoleAdmin},
	OperationUpload:      {RoleRegular, RoleAdmin},
	OperationShare:       {RoleRegular, RoleAdmin},
	OperationDelete:      {RoleRegular, RoleAdmin},
	OperationManageUsers: {RoleAdmin},
}

// IsAllowed is the single authorization policy: it maps role × operation to allow/deny.
// Unknown roles and unknown operations are denied.
func IsAllowed(role Role, op Operation) bool {
	for _, allowed := range policy[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// CanChangeRole reports whether an admin may move target from its current role to next.
// Admin accounts are never demoted, and a role change must be an upgrade.
func CanChangeRole(current, next Role) bool {
	if !next.Valid() || current == RoleAdmin {
		return false
	}
	return next.rank() > current.rank()
}
