package domain

import (
	"testing"

	"medical_advisor_backend/internal/store"
)

func TestDecodePlan_TargetProductSales(t *testing.T) {
	plan := DecodePlan(store.Document{
		ID: "plan-1",
		Data: map[string]interface{}{
			"cities":         []interface{}{"Baghdad", "Basra"},
			"departmentsIds": []interface{}{"cardiology"},
			"clientsIds":     []interface{}{"c1"},
			"salesRepsIds":   []interface{}{"rep-1", "rep-2"},
			"salesManagerId": "mgr-1",
			"targetProductSales": []interface{}{
				map[string]interface{}{"productId": "p1", "targetSales": 120.0},
				map[string]interface{}{"productId": "p2", "targetSales": 30},
				map[string]interface{}{"targetSales": 5.0},
				"not-a-map",
			},
		},
	})

	if len(plan.TargetProducts) != 2 {
		t.Fatalf("expected 2 well-formed target products, got %d", len(plan.TargetProducts))
	}
	if plan.TargetSalesFor("p1") != 120 {
		t.Fatalf("expected target sales 120 for p1, got %v", plan.TargetSalesFor("p1"))
	}
	if plan.TargetSalesFor("p2") != 30 {
		t.Fatalf("expected int target sales coerced to 30, got %v", plan.TargetSalesFor("p2"))
	}
	if plan.TargetSalesFor("missing") != 0 {
		t.Fatalf("expected 0 for untargeted product")
	}
	if !plan.TargetsProduct("p1") || plan.TargetsProduct("p9") {
		t.Fatalf("TargetsProduct membership wrong")
	}
	if !plan.HasClient("c1") || plan.HasClient("c2") {
		t.Fatalf("HasClient membership wrong")
	}
	if plan.FirstSalesRep() != "rep-1" {
		t.Fatalf("expected first rep, got %q", plan.FirstSalesRep())
	}
}

func TestDecodeClient_TrimsAndNormalizes(t *testing.T) {
	client := DecodeClient(store.Document{
		ID: "c1",
		Data: map[string]interface{}{
			"city":       "  Baghdad ",
			"department": "cardiology",
			"state":      StateApproved,
			"priority":   "HIGH",
			"clientType": "hospital",
			"additionalInfo": map[string]interface{}{
				"doctors": []interface{}{
					map[string]interface{}{"name": " Dr. Layla ", "phone": "07701234567", "isInfluencer": true},
					map[string]interface{}{"name": "Dr. Omar", "isInfluencer": false},
					"not-a-doctor",
				},
			},
		},
	})

	if client.City != "Baghdad" {
		t.Fatalf("expected trimmed city, got %q", client.City)
	}
	if client.Priority != PriorityHigh {
		t.Fatalf("expected high priority, got %q", client.Priority)
	}
	if !client.IsApproved() {
		t.Fatalf("expected approved client")
	}
	if len(client.Doctors) != 2 {
		t.Fatalf("expected 2 decoded doctors, got %d", len(client.Doctors))
	}
	if client.Doctors[0].Name != "Dr. Layla" {
		t.Fatalf("expected trimmed doctor name, got %q", client.Doctors[0].Name)
	}
	if client.Doctors[0].Phone != "+9647701234567" {
		t.Fatalf("expected normalized phone, got %q", client.Doctors[0].Phone)
	}
	if !client.Doctors[0].IsInfluencer || client.Doctors[1].IsInfluencer {
		t.Fatalf("influencer flags decoded wrong")
	}
}

func TestParsePriority_Defaults(t *testing.T) {
	cases := []struct {
		raw  interface{}
		want Priority
	}{
		{"low", PriorityLow},
		{" High ", PriorityHigh},
		{"medium", PriorityMedium},
		{"urgent", PriorityMedium},
		{nil, PriorityMedium},
		{42, PriorityMedium},
	}
	for _, tc := range cases {
		if got := ParsePriority(tc.raw); got != tc.want {
			t.Fatalf("ParsePriority(%v) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeMarketingTask_Variants(t *testing.T) {
	task, ok := NormalizeMarketingTask(map[string]interface{}{"name": " visit ", "channel": "field"})
	if !ok || task.Name != "visit" {
		t.Fatalf("expected structured task named visit, got %+v ok=%v", task, ok)
	}
	if _, isMap := task.Payload.(map[string]interface{}); !isMap {
		t.Fatalf("structured task must keep its payload")
	}

	task, ok = NormalizeMarketingTask(map[string]interface{}{"id": "mt-7"})
	if !ok || task.Name != "mt-7" {
		t.Fatalf("expected id fallback, got %+v ok=%v", task, ok)
	}

	task, ok = NormalizeMarketingTask("sample drop")
	if !ok || task.Name != "sample drop" {
		t.Fatalf("expected scalar task, got %+v ok=%v", task, ok)
	}

	if _, ok = NormalizeMarketingTask(map[string]interface{}{"note": "anonymous"}); ok {
		t.Fatalf("unnamed structured task must be rejected")
	}
	if _, ok = NormalizeMarketingTask("   "); ok {
		t.Fatalf("blank scalar task must be rejected")
	}
	if _, ok = NormalizeMarketingTask(nil); ok {
		t.Fatalf("nil task must be rejected")
	}

	task, ok = NormalizeMarketingTask(42)
	if !ok || task.Name != "42" {
		t.Fatalf("expected numeric scalar rendered as text, got %+v ok=%v", task, ok)
	}
}

func TestTaskIdentityFilters_CoverTuple(t *testing.T) {
	identity := TaskIdentity{
		PlanID:            "plan-1",
		ClientID:          "c1",
		ProductID:         "p1",
		MarketingTaskName: "visit",
		DoctorName:        "Dr. Layla",
	}

	filters := identity.IdentityFilters()
	if len(filters) != 5 {
		t.Fatalf("expected 5 identity filters, got %d", len(filters))
	}
	fields := map[string]interface{}{}
	for _, f := range filters {
		if f.Op != store.OpEquals {
			t.Fatalf("identity filters must be equality, got %v", f.Op)
		}
		fields[f.Field] = f.Value
	}
	for field, want := range map[string]interface{}{
		"planId":            "plan-1",
		"clientId":          "c1",
		"productId":         "p1",
		"marketingTaskName": "visit",
		"doctorName":        "Dr. Layla",
	} {
		if fields[field] != want {
			t.Fatalf("filter %s = %v, want %v", field, fields[field], want)
		}
	}
}
