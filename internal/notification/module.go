// Package notification turns domain events and the daily schedule into
// outbound messages: run summary emails for sales managers and task
// reminders pushed to sales reps. Domain modules never talk to email or push
// transports directly.
package notification

import (
	"context"
	"errors"

	"medical_advisor_backend/internal/email"
	"medical_advisor_backend/internal/events"
	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
	"medical_advisor_backend/platform/logger"
)

// Module wires event subscriptions and the reminder sweep.
type Module struct {
	gw     store.Gateway
	sender email.Sender
	push   PushSender
	bus    events.Bus
	log    *logger.Logger
}

// New creates the notification module with a log-only push sender; a real
// transport is injected via SetPushSender.
func New(gw store.Gateway, sender email.Sender, bus events.Bus, log *logger.Logger) *Module {
	return &Module{
		gw:     gw,
		sender: sender,
		push:   NewLogPushSender(log),
		bus:    bus,
		log:    log,
	}
}

// SetPushSender replaces the push transport.
func (m *Module) SetPushSender(push PushSender) {
	if push != nil {
		m.push = push
	}
}

// RegisterHandlers subscribes the module to the domain events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ReconciliationCompleted{}.EventName(), events.HandlerFunc(m.onReconciliationCompleted))
	bus.Subscribe(events.ChunkScanDegraded{}.EventName(), events.HandlerFunc(m.onChunkScanDegraded))
}

// onReconciliationCompleted emails each affected plan's sales manager a run
// summary. Managers without a known email are skipped.
func (m *Module) onReconciliationCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(events.ReconciliationCompleted)
	if !ok {
		return nil
	}

	summary := email.RunSummary{
		Trigger:       completed.Trigger,
		PlanIDs:       completed.PlanIDs,
		CreatedTasks:  completed.CreatedTasks,
		SkippedTasks:  completed.SkippedTasks,
		FailedTuples:  completed.FailedTuples,
		LostWrites:    completed.LostWrites,
		ChunkFailures: completed.ChunkFailures,
	}

	notified := make(map[string]bool)
	for _, planID := range completed.PlanIDs {
		address, err := m.managerEmail(ctx, planID)
		if err != nil || address == "" || notified[address] {
			continue
		}
		notified[address] = true
		if err := m.sender.SendReconciliationSummary(ctx, address, summary); err != nil {
			m.log.Warn("summary email failed", "plan_id", planID, "error", err)
		}
	}
	return nil
}

func (m *Module) onChunkScanDegraded(_ context.Context, event events.Event) error {
	degraded, ok := event.(events.ChunkScanDegraded)
	if !ok {
		return nil
	}
	m.log.Warn("eligibility degraded during reconciliation",
		"trigger", degraded.Trigger,
		"plan_id", degraded.PlanID,
		"failed_chunks", degraded.Failures,
	)
	return nil
}

// managerEmail resolves a plan's sales manager to an email address.
func (m *Module) managerEmail(ctx context.Context, planID string) (string, error) {
	planDoc, err := m.gw.Get(ctx, domain.CollectionPlans, planID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.log.StoreError("get", domain.CollectionPlans, err)
		}
		return "", err
	}
	managerID, _ := planDoc.Data["salesManagerId"].(string)
	if managerID == "" {
		return "", nil
	}
	userDoc, err := m.gw.Get(ctx, domain.CollectionUsers, managerID)
	if err != nil {
		return "", err
	}
	address, _ := userDoc.Data["email"].(string)
	return address, nil
}
