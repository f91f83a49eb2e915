// Package service provides product read operations with relation expansion.
// Product documents hold references (manufacturer, procedures, marketing
// tasks) either as bare id strings or as {id: ...} records; expansion
// resolves them into embedded documents for the mobile client.
package service

import (
	"context"
	"errors"
	"fmt"

	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/apperr"
	"medical_advisor_backend/platform/logger"
)

// Service reads products from the entity store.
type Service struct {
	gw  store.Gateway
	log *logger.Logger
}

// New creates the products service.
func New(gw store.Gateway, log *logger.Logger) *Service {
	return &Service{gw: gw, log: log}
}

// ListProducts returns all products with manufacturer and procedures
// expanded. Marketing tasks are passed through as stored.
func (s *Service) ListProducts(ctx context.Context) ([]map[string]interface{}, error) {
	docs, err := s.gw.ScanAll(ctx, domain.CollectionProducts)
	if err != nil {
		return nil, apperr.Internal("failed to list products").WithOp("products.list")
	}

	products := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		product := doc.Data
		product["id"] = doc.ID
		if _, ok := product["imageUrl"]; !ok {
			product["imageUrl"] = ""
		}
		product["manufacturer"] = s.expandManufacturer(ctx, product["manufacturer"])
		product["procedures"] = s.expandProcedures(ctx, product["procedures"])
		products = append(products, product)
	}
	return products, nil
}

// ListPlanProducts returns the products attached to a plan, fully expanded;
// marketing-task references are resolved against the marketing_tasks
// collection. Unknown plan is NotFound; a dangling product reference is
// skipped.
func (s *Service) ListPlanProducts(ctx context.Context, planID string) ([]map[string]interface{}, error) {
	planDoc, err := s.gw.Get(ctx, domain.CollectionPlans, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("plan not found")
		}
		return nil, apperr.Internal("failed to load plan").WithOp("products.list_plan")
	}

	products := make([]map[string]interface{}, 0)
	for _, productID := range planProductIDs(planDoc.Data) {
		doc, err := s.gw.Get(ctx, domain.CollectionProducts, productID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.log.StoreError("get", domain.CollectionProducts, err)
			}
			continue
		}
		product := doc.Data
		product["id"] = doc.ID
		if _, ok := product["imageUrl"]; !ok {
			product["imageUrl"] = ""
		}
		product["manufacturer"] = s.expandManufacturer(ctx, product["manufacturer"])
		product["procedures"] = s.expandProcedures(ctx, product["procedures"])
		product["marketingTasks"] = s.expandMarketingTasks(ctx, product["marketingTasks"])
		products = append(products, product)
	}
	return products, nil
}

// planProductIDs collects the plan's product references from the explicit
// productsIds list and the target-product entries, deduplicated in order.
func planProductIDs(data map[string]interface{}) []string {
	seen := make(map[string]bool)
	var ids []string
	appendID := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if raw, ok := data["productsIds"].([]interface{}); ok {
		for _, item := range raw {
			appendID(refID(item))
		}
	}
	if raw, ok := data["targetProductSales"].([]interface{}); ok {
		for _, item := range raw {
			if entry, ok := item.(map[string]interface{}); ok {
				appendID(refID(entry["productId"]))
			}
		}
	}
	return ids
}

func (s *Service) expandManufacturer(ctx context.Context, ref interface{}) interface{} {
	id := refID(ref)
	if id == "" {
		return nil
	}
	doc, err := s.gw.Get(ctx, domain.CollectionManufacturers, id)
	if err != nil {
		return nil
	}
	manufacturer := doc.Data
	manufacturer["id"] = doc.ID
	return manufacturer
}

func (s *Service) expandProcedures(ctx context.Context, raw interface{}) []map[string]interface{} {
	refs, _ := raw.([]interface{})
	procedures := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		id := refID(ref)
		if id == "" {
			continue
		}
		doc, err := s.gw.Get(ctx, domain.CollectionProcedures, id)
		if err != nil {
			continue
		}
		procedure := doc.Data
		procedure["id"] = doc.ID
		procedures = append(procedures, procedure)
	}
	return procedures
}

func (s *Service) expandMarketingTasks(ctx context.Context, raw interface{}) []map[string]interface{} {
	refs, _ := raw.([]interface{})
	tasks := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		id := refID(ref)
		if id == "" {
			continue
		}
		doc, err := s.gw.Get(ctx, domain.CollectionMarketingTasks, id)
		if err != nil {
			continue
		}
		task := doc.Data
		task["id"] = doc.ID
		tasks = append(tasks, task)
	}
	return tasks
}

// refID resolves a reference that is either a bare id or an {id: ...} record.
func refID(ref interface{}) string {
	switch typed := ref.(type) {
	case nil:
		return ""
	case string:
		return typed
	case map[string]interface{}:
		return refID(typed["id"])
	default:
		return fmt.Sprint(typed)
	}
}
