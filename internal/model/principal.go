package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCitizen            Role = "CITIZEN"
	RoleFieldWorker        Role = "FIELD_WORKER"
	RoleDepartmentHead     Role = "DEPARTMENT_HEAD"
	RoleDistrictMagistrate Role = "DISTRICT_MAGISTRATE"
)

// ParseRole accepts the canonical names and the lower-case forms issued by older tokens.
func ParseRole(raw string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch Role(normalized) {
	case RoleCitizen, RoleFieldWorker, RoleDepartmentHead, RoleDistrictMagistrate:
		return Role(normalized), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Principal is the authenticated actor issuing a request.
type Principal struct {
	UserID       uuid.UUID
	Role         Role
	DepartmentID *uuid.UUID
}

func (p Principal) IsCitizen() bool {
	return p.Role == RoleCitizen
}

func (p Principal) IsFieldWorker() bool {
	return p.Role == RoleFieldWorker
}

func (p Principal) IsDepartmentHead() bool {
	return p.Role == RoleDepartmentHead
}

func (p Principal) IsDistrictMagistrate() bool {
	return p.Role == RoleDistrictMagistrate
}
