// Package service implements the three reconciliation triggers. All three
// converge on the same eligibility, dedup, and batching rules; they differ
// only in entry shape and in which plan bookkeeping they touch.
package service

import (
	"context"
	"errors"
	"strings"

	"medical_advisor_backend/internal/events"
	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/plans/eligibility"
	"medical_advisor_backend/internal/plans/synthesis"
	"medical_advisor_backend/internal/plans/transport"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/apperr"
	"medical_advisor_backend/platform/logger"
)

// Trigger names as reported in results, logs, and events.
const (
	TriggerFullMaterialization = "full_materialization"
	TriggerClientAdded         = "client_added"
	TriggerProductAdded        = "product_added"
)

// Side-effect update labels.
const (
	updateClientRoster   = "clientsIds"
	updateTargetProducts = "targetProductSales"
)

// Service drives reconciliation runs against the entity store.
type Service struct {
	gw       store.Gateway
	resolver *eligibility.Resolver
	synth    *synthesis.Synthesizer
	bus      events.Bus
	log      *logger.Logger
}

// New creates the reconciliation service.
func New(gw store.Gateway, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		gw:       gw,
		resolver: eligibility.New(gw, log),
		synth:    synthesis.New(gw, log),
		bus:      bus,
		log:      log,
	}
}

// SubmitPlan persists the full plan definition and runs full materialization
// over it. Re-submitting an existing plan is safe: synthesis recognizes
// previously created tasks as duplicates.
func (s *Service) SubmitPlan(ctx context.Context, req transport.SubmitPlanRequest) (transport.ReconcileResult, error) {
	plan := planFromRequest(req)
	if plan.ID == "" {
		plan.ID = s.gw.NewID()
	}

	if err := s.gw.CommitBatch(ctx, []store.Write{{
		Collection: domain.CollectionPlans,
		ID:         plan.ID,
		Data:       encodePlan(plan),
	}}); err != nil {
		return transport.ReconcileResult{}, apperr.Internal("failed to persist plan").
			WithOp("plans.submit").WithDetails(map[string]interface{}{"planId": plan.ID})
	}

	return s.MaterializePlan(ctx, plan)
}

// MaterializePlanByID loads a stored plan and runs full materialization.
func (s *Service) MaterializePlanByID(ctx context.Context, planID string) (transport.ReconcileResult, error) {
	doc, err := s.gw.Get(ctx, domain.CollectionPlans, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return transport.ReconcileResult{}, apperr.NotFound("plan not found")
		}
		return transport.ReconcileResult{}, apperr.Internal("failed to load plan").WithOp("plans.materialize")
	}
	return s.MaterializePlan(ctx, domain.DecodePlan(doc))
}

// MaterializePlan runs the full-materialization trigger: validate the plan
// scope, resolve products and eligible clients, link the resolved clients to
// the plan (best effort), then synthesize the full cross product.
func (s *Service) MaterializePlan(ctx context.Context, plan domain.Plan) (transport.ReconcileResult, error) {
	if plan.ID == "" {
		return transport.ReconcileResult{}, apperr.Validation("plan id is required")
	}
	if len(plan.TargetProducts) == 0 {
		return transport.ReconcileResult{}, apperr.Validation("plan has no target products")
	}
	if len(plan.DepartmentIDs) == 0 {
		return transport.ReconcileResult{}, apperr.Validation("plan has no departments")
	}
	if len(plan.Cities) == 0 {
		return transport.ReconcileResult{}, apperr.Validation("plan has no cities")
	}

	result := transport.ReconcileResult{Trigger: TriggerFullMaterialization}

	products, productErrors := s.resolvePlanProducts(ctx, plan)
	result.Errors = append(result.Errors, productErrors...)

	outcome, err := s.resolver.ResolveEligibleClients(ctx, plan.DepartmentIDs, plan.Cities, domain.StateApproved)
	if err != nil {
		return transport.ReconcileResult{}, err
	}
	result.ChunkFailures = outcome.ChunkFailures
	result.EligibleClients = len(outcome.Clients)

	// Informational roster update: a failure here never fails the run.
	result.SideEffects = append(result.SideEffects,
		s.linkClients(ctx, plan.ID, clientIDs(outcome.Clients)))

	synthResult := s.synth.Synthesize(ctx, plan, outcome.Clients, products)
	mergeSynthesis(&result, plan.ID, synthResult)
	result.Success = true

	s.finishRun(ctx, result, []string{plan.ID})
	return result, nil
}

// ReconcileClientAdded runs the client-added trigger. A client that is not
// approved, or has no city or department, can never match a plan: that is a
// well-formed no-op, not an error.
func (s *Service) ReconcileClientAdded(ctx context.Context, clientID string) (transport.ReconcileResult, error) {
	if clientID == "" {
		return transport.ReconcileResult{}, apperr.Validation("client id is required")
	}

	doc, err := s.gw.Get(ctx, domain.CollectionClients, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return transport.ReconcileResult{}, apperr.NotFound("client not found")
		}
		return transport.ReconcileResult{}, apperr.Internal("failed to load client").WithOp("plans.client_added")
	}
	client := domain.DecodeClient(doc)

	result := transport.ReconcileResult{Trigger: TriggerClientAdded, Errors: []synthesis.TaskError{}}
	switch {
	case !client.IsApproved():
		result.Success = true
		result.NoOpReason = "client is not approved"
		return result, nil
	case client.City == "":
		result.Success = true
		result.NoOpReason = "client has no city"
		return result, nil
	case client.DepartmentID == "":
		result.Success = true
		result.NoOpReason = "client has no department"
		return result, nil
	}

	planDocs, err := s.gw.ScanAll(ctx, domain.CollectionPlans)
	if err != nil {
		return transport.ReconcileResult{}, apperr.Internal("failed to scan plans").WithOp("plans.client_added")
	}

	var matchedPlans []string
	for _, planDoc := range planDocs {
		plan := domain.DecodePlan(planDoc)
		if !planMatchesClient(plan, client) {
			continue
		}
		matchedPlans = append(matchedPlans, plan.ID)

		products, productErrors := s.resolvePlanProducts(ctx, plan)
		result.Errors = append(result.Errors, productErrors...)
		products = filterByDepartment(products, client.DepartmentID)

		synthResult := s.synth.Synthesize(ctx, plan, []domain.Client{client}, products)
		mergeSynthesis(&result, plan.ID, synthResult)

		effect := s.linkClients(ctx, plan.ID, []string{client.ID})
		result.SideEffects = append(result.SideEffects, effect)
		if effect.Error == "" {
			s.bus.Publish(ctx, events.ClientLinkedToPlan{
				BaseEvent: events.NewBaseEvent(),
				PlanID:    plan.ID,
				ClientID:  client.ID,
			})
		}
	}
	result.Success = true

	s.finishRun(ctx, result, matchedPlans)
	return result, nil
}

// ReconcileProductAdded runs the product-added trigger: attach a product with
// a sales goal to a plan and synthesize tasks for the clients the product
// newly reaches. Re-adding a product already targeted by the plan is a
// conflict, never a silent merge.
func (s *Service) ReconcileProductAdded(ctx context.Context, planID string, req transport.AddProductToPlanRequest) (transport.ReconcileResult, error) {
	if planID == "" {
		return transport.ReconcileResult{}, apperr.Validation("plan id is required")
	}

	planDoc, err := s.gw.Get(ctx, domain.CollectionPlans, planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return transport.ReconcileResult{}, apperr.NotFound("plan not found")
		}
		return transport.ReconcileResult{}, apperr.Internal("failed to load plan").WithOp("plans.product_added")
	}
	plan := domain.DecodePlan(planDoc)

	if plan.TargetsProduct(req.ProductID) {
		return transport.ReconcileResult{}, apperr.Conflict("product is already targeted by this plan").
			WithDetails(map[string]interface{}{"planId": planID, "productId": req.ProductID})
	}

	productDoc, err := s.gw.Get(ctx, domain.CollectionProducts, req.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return transport.ReconcileResult{}, apperr.NotFound("product not found")
		}
		return transport.ReconcileResult{}, apperr.Internal("failed to load product").WithOp("plans.product_added")
	}
	product := domain.DecodeProduct(productDoc)
	product.TargetSales = req.TargetSales

	result := transport.ReconcileResult{Trigger: TriggerProductAdded, Errors: []synthesis.TaskError{}}

	if len(product.DepartmentIDs) == 0 {
		result.Success = true
		result.NoOpReason = "product has no departments"
		return result, nil
	}
	if len(plan.Cities) == 0 {
		result.Success = true
		result.NoOpReason = "plan has no cities"
		return result, nil
	}

	outcome, err := s.resolver.ResolveEligibleClients(ctx, product.DepartmentIDs, plan.Cities, domain.StateApproved)
	if err != nil {
		return transport.ReconcileResult{}, err
	}
	result.ChunkFailures = outcome.ChunkFailures
	result.EligibleClients = len(outcome.Clients)

	// Synthesis uses the plan's target list for the sales goal, so the new
	// product is added to the in-memory plan before synthesizing; the stored
	// plan is updated afterwards, best effort.
	plan.TargetProducts = append(plan.TargetProducts, domain.TargetProductSale{
		ProductID:   product.ID,
		TargetSales: req.TargetSales,
	})

	synthResult := s.synth.Synthesize(ctx, plan, outcome.Clients, []domain.Product{product})
	mergeSynthesis(&result, plan.ID, synthResult)

	// Both bookkeeping updates are attempted even if the first fails; a
	// failure in either never discards tasks already created.
	targetEffect := transport.SideEffectOutcome{Update: updateTargetProducts, PlanID: plan.ID}
	if err := s.gw.UpdateArrayUnion(ctx, domain.CollectionPlans, plan.ID, "targetProductSales", []interface{}{
		map[string]interface{}{"productId": product.ID, "targetSales": req.TargetSales},
	}); err != nil {
		targetEffect.Error = err.Error()
		s.log.StoreError("update_target_products", domain.CollectionPlans, err)
	}
	result.SideEffects = append(result.SideEffects, targetEffect)

	result.SideEffects = append(result.SideEffects,
		s.linkClients(ctx, plan.ID, clientIDs(outcome.Clients)))

	if targetEffect.Error == "" {
		s.bus.Publish(ctx, events.ProductLinkedToPlan{
			BaseEvent: events.NewBaseEvent(),
			PlanID:    plan.ID,
			ProductID: product.ID,
			Target:    req.TargetSales,
		})
	}
	result.Success = true

	s.finishRun(ctx, result, []string{plan.ID})
	return result, nil
}

// resolvePlanProducts fetches each target product by id, carrying the plan's
// sales goal onto it. A missing or unreadable product becomes a per-entity
// error and the rest of the run continues.
func (s *Service) resolvePlanProducts(ctx context.Context, plan domain.Plan) ([]domain.Product, []synthesis.TaskError) {
	products := make([]domain.Product, 0, len(plan.TargetProducts))
	var taskErrors []synthesis.TaskError

	for _, target := range plan.TargetProducts {
		doc, err := s.gw.Get(ctx, domain.CollectionProducts, target.ProductID)
		if err != nil {
			message := "failed to load product"
			if errors.Is(err, store.ErrNotFound) {
				message = "product not found"
			}
			taskErrors = append(taskErrors, synthesis.TaskError{ProductID: target.ProductID, Error: message})
			continue
		}
		product := domain.DecodeProduct(doc)
		product.TargetSales = target.TargetSales
		products = append(products, product)
	}
	return products, taskErrors
}

// linkClients appends client ids to a plan's roster via set union.
func (s *Service) linkClients(ctx context.Context, planID string, ids []string) transport.SideEffectOutcome {
	effect := transport.SideEffectOutcome{Update: updateClientRoster, PlanID: planID}
	if len(ids) == 0 {
		return effect
	}
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	if err := s.gw.UpdateArrayUnion(ctx, domain.CollectionPlans, planID, "clientsIds", values); err != nil {
		effect.Error = err.Error()
		s.log.StoreError("update_client_roster", domain.CollectionPlans, err)
	}
	return effect
}

// finishRun logs the run and publishes completion and degradation events.
func (s *Service) finishRun(ctx context.Context, result transport.ReconcileResult, planIDs []string) {
	primaryPlan := ""
	if len(planIDs) > 0 {
		primaryPlan = planIDs[0]
	}
	s.log.ReconcileRun(result.Trigger, primaryPlan, result.CreatedCount, result.SkippedCount, len(result.Errors))

	s.bus.Publish(ctx, events.ReconciliationCompleted{
		BaseEvent:     events.NewBaseEvent(),
		Trigger:       result.Trigger,
		PlanIDs:       planIDs,
		CreatedTasks:  result.CreatedCount,
		SkippedTasks:  result.SkippedCount,
		FailedTuples:  len(result.Errors),
		LostWrites:    result.Commit.Lost,
		ChunkFailures: len(result.ChunkFailures),
	})
	if len(result.ChunkFailures) > 0 {
		s.bus.Publish(ctx, events.ChunkScanDegraded{
			BaseEvent: events.NewBaseEvent(),
			Trigger:   result.Trigger,
			PlanID:    primaryPlan,
			Failures:  len(result.ChunkFailures),
		})
	}
}

// mergeSynthesis folds one plan's synthesis result into the trigger result.
func mergeSynthesis(result *transport.ReconcileResult, planID string, synthResult synthesis.Result) {
	result.CreatedCount += synthResult.Created
	result.SkippedCount += synthResult.Skipped
	result.ClientsWithoutDoctors += synthResult.ClientsWithoutDoctors
	result.Errors = append(result.Errors, synthResult.Errors...)
	result.Commit.Committed += synthResult.Commit.Committed
	result.Commit.Lost += synthResult.Commit.Lost
	result.Commit.Faults = append(result.Commit.Faults, synthResult.Commit.Faults...)
	result.PerPlan = append(result.PerPlan, transport.PlanBreakdown{
		PlanID:  planID,
		Created: synthResult.Created,
		Skipped: synthResult.Skipped,
		Failed:  synthResult.Failed(),
	})
}

// planMatchesClient applies the client-added eligibility conjunction: city in
// plan cities (trimmed), department in plan departments, and not already on
// the plan's roster.
func planMatchesClient(plan domain.Plan, client domain.Client) bool {
	cityMatch := false
	for _, city := range plan.Cities {
		if strings.TrimSpace(city) == client.City {
			cityMatch = true
			break
		}
	}
	if !cityMatch {
		return false
	}
	deptMatch := false
	for _, dept := range plan.DepartmentIDs {
		if dept == client.DepartmentID {
			deptMatch = true
			break
		}
	}
	if !deptMatch {
		return false
	}
	return !plan.HasClient(client.ID)
}

func filterByDepartment(products []domain.Product, departmentID string) []domain.Product {
	filtered := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if product.AppliesToDepartment(departmentID) {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

func clientIDs(clients []domain.Client) []string {
	ids := make([]string, len(clients))
	for i, client := range clients {
		ids[i] = client.ID
	}
	return ids
}

func planFromRequest(req transport.SubmitPlanRequest) domain.Plan {
	plan := domain.Plan{
		ID:             req.PlanID,
		Cities:         req.Cities,
		DepartmentIDs:  req.DepartmentIDs,
		SalesRepIDs:    req.SalesRepIDs,
		SalesManagerID: req.SalesManagerID,
	}
	for _, target := range req.TargetProducts {
		plan.TargetProducts = append(plan.TargetProducts, domain.TargetProductSale{
			ProductID:   target.ProductID,
			TargetSales: target.TargetSales,
		})
	}
	return plan
}

func encodePlan(plan domain.Plan) map[string]interface{} {
	targets := make([]interface{}, 0, len(plan.TargetProducts))
	for _, target := range plan.TargetProducts {
		targets = append(targets, map[string]interface{}{
			"productId":   target.ProductID,
			"targetSales": target.TargetSales,
		})
	}
	return map[string]interface{}{
		"cities":             toInterfaces(plan.Cities),
		"departmentsIds":     toInterfaces(plan.DepartmentIDs),
		"targetProductSales": targets,
		"clientsIds":         toInterfaces(plan.ClientIDs),
		"salesRepsIds":       toInterfaces(plan.SalesRepIDs),
		"salesManagerId":     plan.SalesManagerID,
	}
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
