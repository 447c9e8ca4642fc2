package interfaces

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the access level a custodian holds on a key. The numeric value is
// the uint8 the contract expects on the wire.
type Role uint8

const (
	RoleOwner  Role = 0
	RoleWriter Role = 1
	RoleReader Role = 2
	RoleNone   Role = 3
)

// roleTable is the only place roles are mapped to labels. Every conversion
// goes through it.
var roleTable = []struct {
	role  Role
	label string
}{
	{RoleOwner, "owner"},
	{RoleWriter, "writer"},
	{RoleReader, "reader"},
	{RoleNone, "none"},
}

// AllRoles lists every valid role in wire order.
func AllRoles() []Role {
	roles := make([]Role, 0, len(roleTable))
	for _, entry := range roleTable {
		roles = append(roles, entry.role)
	}
	return roles
}

// ParseRole parses a role label case-insensitively.
func ParseRole(label string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	for _, entry := range roleTable {
		if entry.label == normalized {
			return entry.role, nil
		}
	}
	return 0, Validationf("invalid role: %s. Expected one of 'Owner', 'Writer', 'Reader', 'None'", label)
}

// RoleFromWire converts the contract's integer encoding into a Role.
func RoleFromWire(v uint8) (Role, error) {
	for _, entry := range roleTable {
		if uint8(entry.role) == v {
			return entry.role, nil
		}
	}
	return 0, Validationf("invalid role value %d, expected 0-3", v)
}

// Wire returns the integer sent to the contract.
func (r Role) Wire() uint8 {
	return uint8(r)
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, err := RoleFromWire(uint8(r))
	return err == nil
}

// String returns the lower-case label stored in the mirror.
func (r Role) String() string {
	for _, entry := range roleTable {
		if entry.role == r {
			return entry.label
		}
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, Validationf("cannot encode unknown role %d", uint8(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return Validationf("role must be a string: %v", err)
	}
	parsed, err := ParseRole(label)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
