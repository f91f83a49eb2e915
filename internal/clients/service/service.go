// Package service provides client read operations with relation expansion.
package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/apperr"
	"medical_advisor_backend/platform/logger"
)

// expandConcurrency bounds the per-request expansion fan-out.
const expandConcurrency = 8

// Client type values as stored by the mobile app, including the Arabic
// variants. Hospital-like types carry a procedures breakdown in
// additionalInfo; clinic-like types carry it verbatim; anything else has no
// additional info.
var (
	hospitalTypes = map[string]bool{"hospital": true, "مستشفى": true, "مركز": true, "medicalCenter": true}
	clinicTypes   = map[string]bool{"clinic": true, "عيادة": true}
)

// Service reads clients from the entity store.
type Service struct {
	gw  store.Gateway
	log *logger.Logger
}

// New creates the clients service.
func New(gw store.Gateway, log *logger.Logger) *Service {
	return &Service{gw: gw, log: log}
}

// ListClients returns all clients with department and specialty expanded and
// clientType-dependent additionalInfo handling. Expansion runs concurrently
// per client; one malformed client document is skipped, never fatal.
func (s *Service) ListClients(ctx context.Context) ([]map[string]interface{}, error) {
	docs, err := s.gw.ScanAll(ctx, domain.CollectionClients)
	if err != nil {
		return nil, apperr.Internal("failed to list clients").WithOp("clients.list")
	}

	expanded := make([]map[string]interface{}, len(docs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(expandConcurrency)

	for i, doc := range docs {
		group.Go(func() error {
			expanded[i] = s.expandClient(groupCtx, doc)
			return nil
		})
	}
	_ = group.Wait()

	clients := make([]map[string]interface{}, 0, len(docs))
	for _, client := range expanded {
		if client != nil {
			clients = append(clients, client)
		}
	}
	return clients, nil
}

// expandClient resolves one client's relations. Returns nil for a document
// without data; expansion failures degrade to nil fields.
func (s *Service) expandClient(ctx context.Context, doc store.Document) map[string]interface{} {
	if doc.Data == nil {
		return nil
	}
	client := doc.Data
	client["id"] = doc.ID

	client["department"] = s.expandRef(ctx, domain.CollectionDepartments, client["department"])
	client["specialty"] = s.expandRef(ctx, domain.CollectionSpecialties, client["specialty"])

	clientType, _ := client["clientType"].(string)
	if clientType == "" {
		clientType = "hospital"
	}
	info, _ := client["additionalInfo"].(map[string]interface{})
	switch {
	case hospitalTypes[clientType]:
		if info != nil {
			info["procedures"] = s.expandProcedureCounts(ctx, info["procedures"])
			client["additionalInfo"] = info
		}
	case clinicTypes[clientType]:
		client["additionalInfo"] = info
	default:
		client["additionalInfo"] = nil
	}

	return client
}

// expandProcedureCounts resolves {procedure: id, count: n} entries.
func (s *Service) expandProcedureCounts(ctx context.Context, raw interface{}) []map[string]interface{} {
	entries, _ := raw.([]interface{})
	procedures := make([]map[string]interface{}, 0, len(entries))
	for _, item := range entries {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := entry["procedure"].(string)
		if id == "" {
			continue
		}
		procedures = append(procedures, map[string]interface{}{
			"procedure": s.expandRef(ctx, domain.CollectionProcedures, id),
			"count":     entry["count"],
		})
	}
	return procedures
}

func (s *Service) expandRef(ctx context.Context, collection string, ref interface{}) interface{} {
	id, _ := ref.(string)
	if id == "" {
		return nil
	}
	doc, err := s.gw.Get(ctx, collection, id)
	if err != nil {
		return nil
	}
	expanded := doc.Data
	expanded["id"] = doc.ID
	return expanded
}
