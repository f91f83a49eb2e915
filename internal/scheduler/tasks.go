package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPlanMaterialize = "plans.materialize"

const TaskDailyReminders = "tasks.daily_reminders"

type PlanMaterializePayload struct {
	PlanID string `json:"planId"`
}

func NewPlanMaterializeTask(payload PlanMaterializePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPlanMaterialize, data), nil
}

func ParsePlanMaterializePayload(task *asynq.Task) (PlanMaterializePayload, error) {
	var payload PlanMaterializePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PlanMaterializePayload{}, err
	}
	return payload, nil
}

func NewDailyRemindersTask() *asynq.Task {
	return asynq.NewTask(TaskDailyReminders, nil)
}
