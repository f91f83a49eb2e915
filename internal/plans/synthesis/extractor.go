// Package synthesis turns a resolved plan scope into concrete outreach
// tasks: it enumerates the client × doctor × product × marketing-task cross
// product, checks each tuple for an existing task, and persists the new ones
// in bounded batches.
package synthesis

import "medical_advisor_backend/internal/plans/domain"

// ExtractInfluencerDoctors returns the client's doctors flagged as
// influencers. Pure: no I/O. Doctors with a missing or false flag are
// invisible to the engine.
func ExtractInfluencerDoctors(client domain.Client) []domain.Doctor {
	doctors := make([]domain.Doctor, 0, len(client.Doctors))
	for _, doctor := range client.Doctors {
		if doctor.IsInfluencer {
			doctors = append(doctors, doctor)
		}
	}
	return doctors
}
