package domain

import (
	"fmt"
	"strings"

	"medical_advisor_backend/internal/store"
)

// MarketingTask is one atomic promotional work item attached to a product.
// The store holds these loosely typed: sometimes a structured record with a
// name, sometimes a bare scalar. Name is the normalized dedup key; Payload
// preserves the full stored value for downstream consumers.
type MarketingTask struct {
	Name    string
	Payload interface{}
}

// NormalizeMarketingTask resolves a raw marketing task value into the tagged
// form. Structured records take their "name" (or "id") field; bare scalars
// use their text rendering. Returns false for a structured record with
// neither, or an empty scalar — such entries cannot be deduplicated.
func NormalizeMarketingTask(raw interface{}) (MarketingTask, bool) {
	switch typed := raw.(type) {
	case map[string]interface{}:
		name := docTrimmedString(typed, "name")
		if name == "" {
			name = docTrimmedString(typed, "id")
		}
		if name == "" {
			return MarketingTask{}, false
		}
		return MarketingTask{Name: name, Payload: typed}, true
	case nil:
		return MarketingTask{}, false
	case string:
		name := strings.TrimSpace(typed)
		if name == "" {
			return MarketingTask{}, false
		}
		return MarketingTask{Name: name, Payload: typed}, true
	default:
		return MarketingTask{Name: fmt.Sprint(typed), Payload: typed}, true
	}
}

// Product is a promoted product with the departments it applies to and its
// marketing tasks. TargetSales is populated from the plan when the product
// is resolved in a plan context.
type Product struct {
	ID             string
	Name           string
	DepartmentIDs  []string
	MarketingTasks []interface{}
	TargetSales    float64
}

// DecodeProduct maps a product document onto the typed model.
func DecodeProduct(doc store.Document) Product {
	return Product{
		ID:             doc.ID,
		Name:           docString(doc.Data, "name"),
		DepartmentIDs:  docStringSlice(doc.Data, "departmentsIds"),
		MarketingTasks: docSlice(doc.Data, "marketingTasks"),
	}
}

// AppliesToDepartment reports whether the product is linked to the department.
func (p Product) AppliesToDepartment(departmentID string) bool {
	for _, id := range p.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}
