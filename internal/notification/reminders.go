package notification

import (
	"context"
	"fmt"
	"time"

	"medical_advisor_backend/internal/events"
	"medical_advisor_backend/internal/plans/domain"
	"medical_advisor_backend/internal/store"
)

// Reminder notification strings. The mobile app displays these verbatim.
const (
	reminderTitle   = "تذكير بالمهام"
	reminderBodyFmt = "عندك اليوم مهمة: %s"
	untitledTask    = "بدون عنوان"
)

// ReminderResult summarizes one daily sweep.
type ReminderResult struct {
	Date          string `json:"date"`
	DueTasks      int    `json:"dueTasks"`
	Notified      int    `json:"notified"`
	Undeliverable int    `json:"undeliverable"`
}

// RunDailyReminders walks all users with a registered device token and sends
// one reminder per task assigned to them with today's target date. A failed
// delivery is counted, never fatal.
func (m *Module) RunDailyReminders(ctx context.Context) (ReminderResult, error) {
	today := time.Now().UTC().Format("2006-01-02")
	result := ReminderResult{Date: today}

	users, err := m.gw.ScanAll(ctx, domain.CollectionUsers)
	if err != nil {
		return result, err
	}

	for _, userDoc := range users {
		token, _ := userDoc.Data["fcmToken"].(string)
		if token == "" {
			continue
		}

		tasks, err := m.gw.ScanWhereEquals(ctx, domain.CollectionTasks, "assignedToId", userDoc.ID)
		if err != nil {
			m.log.StoreError("reminder_scan", domain.CollectionTasks, err)
			continue
		}

		for _, taskDoc := range tasks {
			if !dueToday(taskDoc, today) {
				continue
			}
			result.DueTasks++

			body := fmt.Sprintf(reminderBodyFmt, taskTitle(taskDoc))
			if err := m.push.Send(ctx, token, reminderTitle, body); err != nil {
				result.Undeliverable++
				m.log.Warn("reminder delivery failed", "user_id", userDoc.ID, "error", err)
				continue
			}
			result.Notified++
		}
	}

	m.bus.Publish(ctx, events.TaskReminderSweepCompleted{
		BaseEvent: events.NewBaseEvent(),
		DueTasks:  result.DueTasks,
		Notified:  result.Notified,
		Undeliver: result.Undeliverable,
	})
	m.log.Info("daily reminder sweep complete",
		"date", today, "due", result.DueTasks, "notified", result.Notified, "undeliverable", result.Undeliverable)
	return result, nil
}

func dueToday(doc store.Document, today string) bool {
	targetDate, _ := doc.Data["targetDate"].(string)
	return targetDate == today
}

func taskTitle(doc store.Document) string {
	if title, _ := doc.Data["title"].(string); title != "" {
		return title
	}
	if name, _ := doc.Data["marketingTaskName"].(string); name != "" {
		return name
	}
	return untitledTask
}
