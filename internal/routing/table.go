package routing

import (
	"sort"

	"github.com/google/uuid"

	"complaint-service/internal/model"
	"complaint-service/internal/utils"
)

type departmentRoute struct {
	id       uuid.UUID
	name     string
	priority int
	owned    map[string]struct{}
}

// Table maps complaint categories to at most one department. Departments are tried in
// (priority, name) order and the first one owning any of the categories wins.
type Table struct {
	vocabulary  *Vocabulary
	departments []departmentRoute
}

func NewTable(vocabulary *Vocabulary, departments []model.Department) *Table {
	if vocabulary == nil {
		vocabulary = DefaultVocabulary()
	}

	routes := make([]departmentRoute, 0, len(departments))
	for _, d := range departments {
		owned := make(map[string]struct{}, len(d.Categories))
		for _, label := range d.Categories {
			owned[utils.NormalizeLabel(vocabulary.Canonical(label))] = struct{}{}
		}
		routes = append(routes, departmentRoute{
			id:       d.ID,
			name:     d.Name,
			priority: d.Priority,
			owned:    owned,
		})
	}

	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].priority != routes[j].priority {
			return routes[i].priority < routes[j].priority
		}
		if routes[i].name != routes[j].name {
			return routes[i].name < routes[j].name
		}
		return routes[i].id.String() < routes[j].id.String()
	})

	return &Table{vocabulary: vocabulary, departments: routes}
}

func (t *Table) Vocabulary() *Vocabulary {
	return t.vocabulary
}

// Route returns the owning department. An explicit department always wins; false means
// the complaint is unrouted.
func (t *Table) Route(categories []string, explicit *uuid.UUID) (uuid.UUID, bool) {
	if explicit != nil && *explicit != uuid.Nil {
		return *explicit, true
	}

	keys := make([]string, 0, len(categories))
	for _, label := range categories {
		keys = append(keys, utils.NormalizeLabel(t.vocabulary.Canonical(label)))
	}

	for _, d := range t.departments {
		for _, key := range keys {
			if _, ok := d.owned[key]; ok {
				return d.id, true
			}
		}
	}
	return uuid.Nil, false
}

func (t *Table) RouteComplaint(c *model.Complaint) (uuid.UUID, bool) {
	return t.Route(c.Categories, c.AssignedDepartmentID)
}

// Infer ignores any explicit assignment and routes on categories alone.
func (t *Table) Infer(categories []string) (uuid.UUID, bool) {
	return t.Route(categories, nil)
}
