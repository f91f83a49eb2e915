package domain

import (
	"strings"

	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/phone"
)

// StateApproved is the only client state value eligible for matching.
const StateApproved = "approved"

// Priority is the enumerated client priority. Free-form store values are
// resolved to this enum once, at the decode boundary.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority resolves a raw priority value. Absent, non-string, or
// unrecognized values default to medium.
func ParsePriority(raw interface{}) Priority {
	text, ok := raw.(string)
	if !ok {
		return PriorityMedium
	}
	switch Priority(strings.ToLower(strings.TrimSpace(text))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	case PriorityMedium:
		return PriorityMedium
	default:
		return PriorityMedium
	}
}

// Doctor is a practitioner associated with a client.
type Doctor struct {
	Name         string
	Phone        string
	Email        string
	IsInfluencer bool
}

// Client is a healthcare facility (hospital or clinic). Read-only to the
// engine: matching never mutates client documents.
type Client struct {
	ID           string
	City         string
	DepartmentID string
	State        string
	Priority     Priority
	ClientType   string
	Doctors      []Doctor
}

// DecodeClient maps a client document onto the typed model. City is trimmed
// to guard against store drift ("Baghdad " vs "Baghdad"); doctor phones are
// normalized to E.164 where they parse.
func DecodeClient(doc store.Document) Client {
	client := Client{
		ID:           doc.ID,
		City:         docTrimmedString(doc.Data, "city"),
		DepartmentID: docString(doc.Data, "department"),
		State:        docString(doc.Data, "state"),
		Priority:     ParsePriority(doc.Data["priority"]),
		ClientType:   docString(doc.Data, "clientType"),
	}

	additionalInfo := docMap(doc.Data, "additionalInfo")
	if additionalInfo == nil {
		return client
	}

	for _, item := range docSlice(additionalInfo, "doctors") {
		raw, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		client.Doctors = append(client.Doctors, Doctor{
			Name:         docTrimmedString(raw, "name"),
			Phone:        phone.NormalizeE164(docString(raw, "phone")),
			Email:        docTrimmedString(raw, "email"),
			IsInfluencer: docBool(raw, "isInfluencer"),
		})
	}

	return client
}

// IsApproved reports whether the client is in the approved state.
func (c Client) IsApproved() bool {
	return c.State == StateApproved
}
