// ABOUTME: Privilege levels and the ordering used to gate requests
// ABOUTME: Stored as 0/1 integers and serialized as "None"/"Admin"

package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Privilege is a totally ordered access level. The zero value is None.
type Privilege uint8

const (
	None Privilege = iota
	Admin
)

func (p Privilege) String() string {
	switch p {
	case None:
		return "None"
	case Admin:
		return "Admin"
	default:
		return fmt.Sprintf("Privilege(%d)", uint8(p))
	}
}

// Valid reports whether p is a known level.
func (p Privilege) Valid() bool {
	return p <= Admin
}

// Level is the integer stored in the database.
func (p Privilege) Level() int {
	return int(p)
}

// PrivilegeFromLevel converts a stored integer back to a Privilege.
func PrivilegeFromLevel(level int) (Privilege, error) {
	if level < 0 || level > int(Admin) {
		return None, fmt.Errorf("privilege level %d out of range", level)
	}
	return Privilege(level), nil
}

// ParsePrivilege accepts "None" or "Admin", ignoring case.
func ParsePrivilege(s string) (Privilege, error) {
	switch {
	case strings.EqualFold(s, "none"):
		return None, nil
	case strings.EqualFold(s, "admin"):
		return Admin, nil
	default:
		return None, fmt.Errorf("unknown privilege %q (want None or Admin)", s)
	}
}

// AtLeast reports whether held satisfies required.
func AtLeast(held, required Privilege) bool {
	return held >= required
}

func (p Privilege) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", p)
	}
	return json.Marshal(p.String())
}

func (p *Privilege) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("privilege must be a string: %w", err)
	}
	switch s {
	case "None":
		*p = None
	case "Admin":
		*p = Admin
	default:
		return fmt.Errorf("unknown privilege %q", s)
	}
	return nil
}
