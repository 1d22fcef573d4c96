package rbac

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles an account can hold.
type Role string

const (
	RoleStudent Role = "student"
	RoleJudge   Role = "judge"
	RoleManager Role = "department_manager"
)

// Roles lists every valid role, in a stable order.
var Roles = []Role{RoleStudent, RoleJudge, RoleManager}

// ParseRole accepts the canonical names plus the "department_head" alias the
// legacy data still carries.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleStudent):
		return RoleStudent, nil
	case string(RoleJudge):
		return RoleJudge, nil
	case string(RoleManager), "department_head", "manager":
		return RoleManager, nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleJudge || r == RoleManager
}

// Default policy.
var RolePermissions = map[Role][]string{
	RoleStudent: {
		"grade:view-own",
		"user:change_password",
	},
	RoleJudge: {
		"criteria:view",
		"evaluation:write",
		"user:change_password",
	},
	RoleManager: {
		"criteria:*",
		"report:*",
		"users:*",
		"user:change_password",
	},
}

// Capabilities is the per-actor summary resolved once at the request boundary.
type Capabilities struct {
	Evaluate       bool // write own evaluations
	ManageCriteria bool
	ViewReports    bool
	ViewOwnGrades  bool
}

func (c *Checker) CapabilitiesFor(role Role) Capabilities {
	return Capabilities{
		Evaluate:       c.Has(role, "evaluation:write"),
		ManageCriteria: c.Has(role, "criteria:manage"),
		ViewReports:    c.Has(role, "report:view"),
		ViewOwnGrades:  c.Has(role, "grade:view-own"),
	}
}
