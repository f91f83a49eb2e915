package service

import (
	"context"
	"testing"

	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store/memstore"
	"medical_advisor_backend/platform/logger"
)

func newTestService() (*Service, *memstore.Store) {
	gw := memstore.New()
	return New(gw, logger.New("test")), gw
}

func TestListClients_ExpandsDepartmentAndSpecialty(t *testing.T) {
	svc, gw := newTestService()
	gw.Seed(domain.CollectionDepartments, "dept-1", map[string]interface{}{"name": "Cardiology"})
	gw.Seed(domain.CollectionSpecialties, "spec-1", map[string]interface{}{"name": "Interventional"})
	gw.Seed(domain.CollectionClients, "c1", map[string]interface{}{
		"name":       "Basra General",
		"department": "dept-1",
		"specialty":  "spec-1",
		"clientType": "hospital",
	})

	clients, err := svc.ListClients(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(clients) != 1 {
		t.Fatalf("expected 1 client, got %d", len(clients))
	}

	client := clients[0]
	if client["id"] != "c1" {
		t.Fatalf("expected document id on client, got %v", client["id"])
	}
	department, ok := client["department"].(map[string]interface{})
	if !ok || department["name"] != "Cardiology" {
		t.Fatalf("department not expanded: %v", client["department"])
	}
	specialty, ok := client["specialty"].(map[string]interface{})
	if !ok || specialty["name"] != "Interventional" {
		t.Fatalf("specialty not expanded: %v", client["specialty"])
	}
}

func TestListClients_HospitalProcedureCounts(t *testing.T) {
	svc, gw := newTestService()
	gw.Seed(domain.CollectionProcedures, "proc-1", map[string]interface{}{"name": "angiography"})
	gw.Seed(domain.CollectionClients, "c1", map[string]interface{}{
		"name":       "مستشفى البصرة",
		"clientType": "مستشفى",
		"additionalInfo": map[string]interface{}{
			"procedures": []interface{}{
				map[string]interface{}{"procedure": "proc-1", "count": 12},
				map[string]interface{}{"count": 3}, // no procedure ref
			},
		},
	})

	clients, err := svc.ListClients(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	info, ok := clients[0]["additionalInfo"].(map[string]interface{})
	if !ok {
		t.Fatalf("hospital client must keep additionalInfo, got %v", clients[0]["additionalInfo"])
	}
	procedures, ok := info["procedures"].([]map[string]interface{})
	if !ok || len(procedures) != 1 {
		t.Fatalf("expected 1 resolvable procedure entry, got %v", info["procedures"])
	}
	resolved, ok := procedures[0]["procedure"].(map[string]interface{})
	if !ok || resolved["name"] != "angiography" {
		t.Fatalf("procedure ref not expanded: %v", procedures[0]["procedure"])
	}
}

func TestListClients_ClientTypeHandling(t *testing.T) {
	svc, gw := newTestService()
	gw.Seed(domain.CollectionClients, "clinic", map[string]interface{}{
		"clientType":     "عيادة",
		"additionalInfo": map[string]interface{}{"rooms": 3},
	})
	gw.Seed(domain.CollectionClients, "pharmacy", map[string]interface{}{
		"clientType":     "pharmacy",
		"additionalInfo": map[string]interface{}{"rooms": 1},
	})

	clients, err := svc.ListClients(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	byID := make(map[string]map[string]interface{}, len(clients))
	for _, client := range clients {
		byID[client["id"].(string)] = client
	}

	clinicInfo, ok := byID["clinic"]["additionalInfo"].(map[string]interface{})
	if !ok || clinicInfo["rooms"] != 3 {
		t.Fatalf("clinic additionalInfo must pass through, got %v", byID["clinic"]["additionalInfo"])
	}
	if byID["pharmacy"]["additionalInfo"] != nil {
		t.Fatalf("unknown client type must drop additionalInfo, got %v", byID["pharmacy"]["additionalInfo"])
	}
}
