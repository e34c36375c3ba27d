package access

import (
	"github.com/google/uuid"

	"complaint-service/internal/model"
)

// Router resolves the department owning a complaint.
type Router interface {
	RouteComplaint(c *model.Complaint) (uuid.UUID, bool)
}

// Prefilter is the part of a scope that the store can evaluate. Match must still be applied
// to the rows it returns.
type Prefilter struct {
	ReporterID *uuid.UUID
	WorkerID   *uuid.UUID
	// DepartmentID narrows to complaints explicitly routed to the department or not routed yet.
	DepartmentID *uuid.UUID
	// Empty is set when the scope can match nothing.
	Empty bool
}

// Scope is the set of complaints an actor may see.
type Scope struct {
	actor     model.Principal
	router    Router
	prefilter Prefilter
}

func ScopeFor(actor model.Principal, router Router) Scope {
	s := Scope{actor: actor, router: router}

	switch actor.Role {
	case model.RoleCitizen:
		id := actor.UserID
		s.prefilter.ReporterID = &id
	case model.RoleFieldWorker:
		id := actor.UserID
		s.prefilter.WorkerID = &id
	case model.RoleDepartmentHead:
		if actor.DepartmentID == nil || router == nil {
			s.prefilter.Empty = true
			break
		}
		dept := *actor.DepartmentID
		s.prefilter.DepartmentID = &dept
	case model.RoleDistrictMagistrate:
	default:
		s.prefilter.Empty = true
	}
	return s
}

func (s Scope) Actor() model.Principal {
	return s.actor
}

func (s Scope) Prefilter() Prefilter {
	return s.prefilter
}

func (s Scope) Match(c *model.Complaint) bool {
	if c == nil || s.prefilter.Empty {
		return false
	}

	switch s.actor.Role {
	case model.RoleCitizen:
		return c.ReporterID == s.actor.UserID
	case model.RoleFieldWorker:
		return c.AssignedWorkerID != nil && *c.AssignedWorkerID == s.actor.UserID
	case model.RoleDepartmentHead:
		dept, ok := s.router.RouteComplaint(c)
		return ok && dept == *s.actor.DepartmentID
	case model.RoleDistrictMagistrate:
		return true
	}
	return false
}

// Filter keeps the complaints inside the scope, preserving order.
func (s Scope) Filter(complaints []model.Complaint) []model.Complaint {
	out := make([]model.Complaint, 0, len(complaints))
	for i := range complaints {
		if s.Match(&complaints[i]) {
			out = append(out, complaints[i])
		}
	}
	return out
}

// Permits reports whether op is whitelisted for the actor and c lies inside the scope.
func (s Scope) Permits(op Operation, c *model.Complaint) bool {
	return Allowed(s.actor.Role, op) && s.Match(c)
}
