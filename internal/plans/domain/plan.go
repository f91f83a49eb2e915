package domain

import "medical_advisor_backend/internal/store"

// TargetProductSale links a product to a plan with its sales goal.
type TargetProductSale struct {
	ProductID   string
	TargetSales float64
}

// Plan is a campaign definition scoping target departments, cities, and
// products with sales goals. The engine appends to ClientIDs as clients are
// matched; everything else is written by the plan management surface.
type Plan struct {
	ID             string
	Cities         []string
	DepartmentIDs  []string
	TargetProducts []TargetProductSale
	ClientIDs      []string
	SalesRepIDs    []string
	SalesManagerID string
}

// DecodePlan maps a plan document onto the typed model.
func DecodePlan(doc store.Document) Plan {
	plan := Plan{
		ID:             doc.ID,
		Cities:         docStringSlice(doc.Data, "cities"),
		DepartmentIDs:  docStringSlice(doc.Data, "departmentsIds"),
		ClientIDs:      docStringSlice(doc.Data, "clientsIds"),
		SalesRepIDs:    docStringSlice(doc.Data, "salesRepsIds"),
		SalesManagerID: docString(doc.Data, "salesManagerId"),
	}

	for _, item := range docSlice(doc.Data, "targetProductSales") {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		productID := docString(entry, "productId")
		if productID == "" {
			continue
		}
		plan.TargetProducts = append(plan.TargetProducts, TargetProductSale{
			ProductID:   productID,
			TargetSales: docNumber(entry, "targetSales"),
		})
	}

	return plan
}

// TargetSalesFor returns the plan's sales goal for a product, or zero when
// the product is not targeted.
func (p Plan) TargetSalesFor(productID string) float64 {
	for _, target := range p.TargetProducts {
		if target.ProductID == productID {
			return target.TargetSales
		}
	}
	return 0
}

// TargetsProduct reports whether the product is in the plan's target list.
func (p Plan) TargetsProduct(productID string) bool {
	for _, target := range p.TargetProducts {
		if target.ProductID == productID {
			return true
		}
	}
	return false
}

// HasClient reports whether the client id is already linked to the plan.
func (p Plan) HasClient(clientID string) bool {
	for _, id := range p.ClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// FirstSalesRep returns the id tasks are assigned to: the first entry of the
// rep list, or empty when the plan has none.
func (p Plan) FirstSalesRep() string {
	if len(p.SalesRepIDs) == 0 {
		return ""
	}
	return p.SalesRepIDs[0]
}
