package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"medical_advisor_backend/internal/email"
	"medical_advisor_backend/internal/events"
	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store/memstore"
	platformevents "medical_advisor_backend/platform/events"
	"medical_advisor_backend/platform/logger"
)

type capturedPush struct {
	token string
	title string
	body  string
}

type capturePushSender struct {
	sent    []capturedPush
	failFor string
}

func (s *capturePushSender) Send(_ context.Context, token, title, body string) error {
	if s.failFor != "" && token == s.failFor {
		return errors.New("device unreachable")
	}
	s.sent = append(s.sent, capturedPush{token: token, title: title, body: body})
	return nil
}

type captureEmailSender struct {
	to        []string
	summaries []email.RunSummary
}

func (s *captureEmailSender) SendReconciliationSummary(_ context.Context, toEmail string, summary email.RunSummary) error {
	s.to = append(s.to, toEmail)
	s.summaries = append(s.summaries, summary)
	return nil
}

func newTestModule(gw *memstore.Store, sender email.Sender) *Module {
	log := logger.New("test")
	return New(gw, sender, platformevents.NewInMemoryBus(log), log)
}

func seedUser(gw *memstore.Store, id, fcmToken, address string) {
	data := map[string]interface{}{"email": address}
	if fcmToken != "" {
		data["fcmToken"] = fcmToken
	}
	gw.Seed(domain.CollectionUsers, id, data)
}

func seedTask(gw *memstore.Store, id, assignedTo, targetDate, title string) {
	gw.Seed(domain.CollectionTasks, id, map[string]interface{}{
		"assignedToId":      assignedTo,
		"targetDate":        targetDate,
		"marketingTaskName": title,
	})
}

func TestRunDailyReminders_NotifiesDueTasksOnly(t *testing.T) {
	gw := memstore.New()
	today := time.Now().UTC().Format("2006-01-02")

	seedUser(gw, "rep-1", "token-1", "rep1@example.com")
	seedUser(gw, "rep-2", "", "rep2@example.com")
	seedTask(gw, "t1", "rep-1", today, "visit")
	seedTask(gw, "t2", "rep-1", "2000-01-01", "old visit")
	seedTask(gw, "t3", "rep-2", today, "unreachable visit")

	push := &capturePushSender{}
	module := newTestModule(gw, &captureEmailSender{})
	module.SetPushSender(push)

	result, err := module.RunDailyReminders(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if result.DueTasks != 1 || result.Notified != 1 {
		t.Fatalf("expected 1 due and 1 notified, got %+v", result)
	}
	if len(push.sent) != 1 {
		t.Fatalf("expected 1 push, got %d", len(push.sent))
	}
	if push.sent[0].token != "token-1" {
		t.Fatalf("expected delivery to token-1, got %s", push.sent[0].token)
	}
	if push.sent[0].title != reminderTitle {
		t.Fatalf("unexpected reminder title %q", push.sent[0].title)
	}
}

func TestRunDailyReminders_DeliveryFailureIsCounted(t *testing.T) {
	gw := memstore.New()
	today := time.Now().UTC().Format("2006-01-02")

	seedUser(gw, "rep-1", "bad-token", "rep1@example.com")
	seedTask(gw, "t1", "rep-1", today, "visit")

	push := &capturePushSender{failFor: "bad-token"}
	module := newTestModule(gw, &captureEmailSender{})
	module.SetPushSender(push)

	result, err := module.RunDailyReminders(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.DueTasks != 1 || result.Undeliverable != 1 || result.Notified != 0 {
		t.Fatalf("expected 1 undeliverable, got %+v", result)
	}
}

func TestOnReconciliationCompleted_EmailsManagerOnce(t *testing.T) {
	gw := memstore.New()
	seedUser(gw, "mgr-1", "", "manager@example.com")
	gw.Seed(domain.CollectionPlans, "plan-1", map[string]interface{}{"salesManagerId": "mgr-1"})
	gw.Seed(domain.CollectionPlans, "plan-2", map[string]interface{}{"salesManagerId": "mgr-1"})

	sender := &captureEmailSender{}
	module := newTestModule(gw, sender)

	err := module.onReconciliationCompleted(context.Background(), events.ReconciliationCompleted{
		BaseEvent:    events.NewBaseEvent(),
		Trigger:      "full_materialization",
		PlanIDs:      []string{"plan-1", "plan-2"},
		CreatedTasks: 5,
	})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(sender.to) != 1 {
		t.Fatalf("same manager must be emailed once, got %d emails", len(sender.to))
	}
	if sender.to[0] != "manager@example.com" {
		t.Fatalf("unexpected recipient %s", sender.to[0])
	}
	if sender.summaries[0].CreatedTasks != 5 {
		t.Fatalf("summary payload lost, got %+v", sender.summaries[0])
	}
}
