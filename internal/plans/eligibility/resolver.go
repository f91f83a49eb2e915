// Package eligibility resolves which clients qualify for a plan's scope:
// the conjunction of department match, city match, and approval state.
// Membership filters are batched to the store's bounded IN size.
package eligibility

import (
	"context"
	"sort"
	"strings"

	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/apperr"
	"medical_advisor_backend/platform/logger"
)

// maxObservedCities caps the diagnostics payload.
const maxObservedCities = 20

// ChunkFailure records one failed chunk scan. The run continues past it;
// the failure is surfaced so operators can see partial degradation.
type ChunkFailure struct {
	Departments []string `json:"departments"`
	Cities      []string `json:"cities,omitempty"`
	Error       string   `json:"error"`
}

// Diagnostics explains an empty eligible set: which requested values match
// nothing, and which cities actually co-occur with the requested departments.
// This lets an operator tell a typo from a region with no approved clients.
type Diagnostics struct {
	RequestedDepartments   []string `json:"requestedDepartments"`
	RequestedCities        []string `json:"requestedCities"`
	DepartmentsWithNoMatch []string `json:"departmentsWithNoMatch"`
	CitiesWithNoMatch      []string `json:"citiesWithNoMatch"`
	ObservedCities         []string `json:"observedCitiesForDepartments"`
}

// Outcome is the resolution result. ChunkFailures is non-empty when some
// scans failed but the merged set could still be produced.
type Outcome struct {
	Clients       []domain.Client
	ChunkFailures []ChunkFailure
}

// Resolver resolves eligible clients against the entity store.
type Resolver struct {
	gw  store.Gateway
	log *logger.Logger
}

// New creates a resolver.
func New(gw store.Gateway, log *logger.Logger) *Resolver {
	return &Resolver{gw: gw, log: log}
}

// ResolveEligibleClients returns the unique set of clients whose department
// is in departmentIDs, whose trimmed city is in cities, and whose state
// equals requiredState.
//
// Two strategies produce the identical set. When the city list fits the
// store's IN bound budget, each (department chunk × city chunk) pair is one
// filtered scan. With more cities than one chunk, scans filter by department
// chunk and state only and the city check moves in-memory, trading fewer
// round trips for larger per-scan results.
func (r *Resolver) ResolveEligibleClients(ctx context.Context, departmentIDs, cities []string, requiredState string) (Outcome, error) {
	departmentIDs = dedupe(departmentIDs)
	cities = dedupeTrimmed(cities)

	if len(departmentIDs) == 0 {
		return Outcome{}, apperr.Validation("at least one department id is required")
	}
	if len(cities) == 0 {
		return Outcome{}, apperr.Validation("at least one city is required")
	}

	var (
		merged   = make(map[string]domain.Client)
		failures []ChunkFailure
	)

	deptChunks := chunk(departmentIDs, store.MaxInValues)

	if len(cities) <= store.MaxInValues {
		cityChunks := chunk(cities, store.MaxInValues)
		for _, depts := range deptChunks {
			for _, cityChunk := range cityChunks {
				docs, err := r.gw.ScanWhereAll(ctx, domain.CollectionClients, []store.Filter{
					store.In("department", toAny(depts)),
					store.In("city", toAny(cityChunk)),
					store.Equals("state", requiredState),
				})
				if err != nil {
					r.log.ChunkScanFailed(domain.CollectionClients, depts, cityChunk, err)
					failures = append(failures, ChunkFailure{Departments: depts, Cities: cityChunk, Error: err.Error()})
					continue
				}
				mergeClients(merged, docs, nil)
			}
		}
	} else {
		wanted := citySet(cities)
		for _, depts := range deptChunks {
			docs, err := r.gw.ScanWhereAll(ctx, domain.CollectionClients, []store.Filter{
				store.In("department", toAny(depts)),
				store.Equals("state", requiredState),
			})
			if err != nil {
				r.log.ChunkScanFailed(domain.CollectionClients, depts, nil, err)
				failures = append(failures, ChunkFailure{Departments: depts, Error: err.Error()})
				continue
			}
			mergeClients(merged, docs, wanted)
		}
	}

	if len(merged) == 0 {
		if len(failures) > 0 {
			return Outcome{}, apperr.Internal("eligibility resolution degraded: no clients resolved and some scans failed").
				WithOp("eligibility.resolve").
				WithDetails(map[string]interface{}{"chunkFailures": failures})
		}
		diag := r.diagnose(ctx, departmentIDs, cities, requiredState)
		return Outcome{}, apperr.Unprocessable("no eligible clients matched the requested departments and cities").
			WithOp("eligibility.resolve").
			WithDetails(diag)
	}

	clients := make([]domain.Client, 0, len(merged))
	for _, client := range merged {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })

	return Outcome{Clients: clients, ChunkFailures: failures}, nil
}

// diagnose probes the store to explain an empty result. Best effort: probe
// errors leave the corresponding diagnostic dimension empty rather than
// failing the diagnosis itself.
func (r *Resolver) diagnose(ctx context.Context, departmentIDs, cities []string, requiredState string) Diagnostics {
	diag := Diagnostics{
		RequestedDepartments:   departmentIDs,
		RequestedCities:        cities,
		DepartmentsWithNoMatch: make([]string, 0),
		CitiesWithNoMatch:      make([]string, 0),
		ObservedCities:         make([]string, 0),
	}

	matchedDepts := make(map[string]bool)
	observedCities := make(map[string]bool)

	for _, depts := range chunk(departmentIDs, store.MaxInValues) {
		docs, err := r.gw.ScanWhereAll(ctx, domain.CollectionClients, []store.Filter{
			store.In("department", toAny(depts)),
			store.Equals("state", requiredState),
		})
		if err != nil {
			continue
		}
		for _, doc := range docs {
			client := domain.DecodeClient(doc)
			matchedDepts[client.DepartmentID] = true
			if client.City != "" {
				observedCities[client.City] = true
			}
		}
	}

	for _, dept := range departmentIDs {
		if !matchedDepts[dept] {
			diag.DepartmentsWithNoMatch = append(diag.DepartmentsWithNoMatch, dept)
		}
	}
	for _, city := range cities {
		if !observedCities[city] {
			diag.CitiesWithNoMatch = append(diag.CitiesWithNoMatch, city)
		}
	}
	for city := range observedCities {
		diag.ObservedCities = append(diag.ObservedCities, city)
	}
	sort.Strings(diag.ObservedCities)
	if len(diag.ObservedCities) > maxObservedCities {
		diag.ObservedCities = diag.ObservedCities[:maxObservedCities]
	}

	return diag
}

// mergeClients decodes documents into the merged set, deduplicating by id.
// When wanted is non-nil only clients whose trimmed city is in it are kept.
func mergeClients(merged map[string]domain.Client, docs []store.Document, wanted map[string]bool) {
	for _, doc := range docs {
		client := domain.DecodeClient(doc)
		if wanted != nil && !wanted[client.City] {
			continue
		}
		if _, seen := merged[client.ID]; seen {
			continue
		}
		merged[client.ID] = client
	}
}

func chunk(values []string, size int) [][]string {
	chunks := make([][]string, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}

func citySet(cities []string) map[string]bool {
	set := make(map[string]bool, len(cities))
	for _, city := range cities {
		set[city] = true
	}
	return set
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

func dedupeTrimmed(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		trimmed = append(trimmed, strings.TrimSpace(value))
	}
	return dedupe(trimmed)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
