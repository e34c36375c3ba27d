package access

import "complaint-service/internal/model"

type Operation string

const (
	OpCreateComplaint     Operation = "complaint:create"
	OpReadComplaint       Operation = "complaint:read"
	OpAssignWorker        Operation = "complaint:assign"
	OpCompleteComplaint   Operation = "complaint:complete"
	OpPatchComplaint      Operation = "complaint:patch"
	OpRateComplaint       Operation = "complaint:rate"
	OpSuggestCategories   Operation = "complaint:suggest"
	OpViewAnalytics       Operation = "analytics:view"
	OpViewDepartmentStats Operation = "analytics:departments"
	OpViewWorkerStats     Operation = "analytics:workers"
	OpListDepartments     Operation = "department:list"
	OpManageDepartments   Operation = "department:manage"
	OpListWorkers         Operation = "worker:list"
	OpRegisterWorker      Operation = "worker:register"
	OpUpdateAvailability  Operation = "worker:availability"
)

var whitelist = map[model.Role]map[Operation]struct{}{
	model.RoleCitizen: set(
		OpCreateComplaint, OpReadComplaint, OpRateComplaint, OpSuggestCategories,
		OpViewAnalytics, OpListDepartments,
	),
	model.RoleFieldWorker: set(
		OpReadComplaint, OpCompleteComplaint, OpViewAnalytics, OpViewWorkerStats,
		OpListDepartments, OpUpdateAvailability,
	),
	model.RoleDepartmentHead: set(
		OpReadComplaint, OpAssignWorker, OpCompleteComplaint, OpPatchComplaint,
		OpViewAnalytics, OpViewDepartmentStats, OpViewWorkerStats, OpListDepartments,
		OpListWorkers, OpRegisterWorker, OpSuggestCategories,
	),
	model.RoleDistrictMagistrate: set(
		OpReadComplaint, OpAssignWorker, OpCompleteComplaint, OpPatchComplaint,
		OpViewAnalytics, OpViewDepartmentStats, OpViewWorkerStats, OpListDepartments,
		OpManageDepartments, OpListWorkers, OpRegisterWorker, OpSuggestCategories,
	),
}

func set(ops ...Operation) map[Operation]struct{} {
	m := make(map[Operation]struct{}, len(ops))
	for _, op := range ops {
		m[op] = struct{}{}
	}
	return m
}

// Allowed reports whether the role may perform op at all, regardless of scope.
func Allowed(role model.Role, op Operation) bool {
	_, ok := whitelist[role][op]
	return ok
}
