package transport

import "fmt"

// Role selects which socket and which loopback ring an operation applies to.
type Role uint8

const (
	// RoleClient is the client endpoint of the process.
	RoleClient Role = 0
	// RoleServer is the server endpoint of the process.
	RoleServer Role = 1
)

// roleCount sizes per-role arrays.
const roleCount = 2

// Roles lists every role in index order.
var Roles = [roleCount]Role{RoleClient, RoleServer}

// Peer returns the role on the other end of the loopback path.
func (r Role) Peer() Role {
	return r ^ 1
}

// Valid reports whether r is RoleClient or RoleServer.
func (r Role) Valid() bool {
	return r < roleCount
}

// String returns a human-readable representation of the Role.
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}
