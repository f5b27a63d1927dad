package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCallReconcile = "calls.reconcile"

type CallReconcilePayload struct {
	CallID string `json:"callId"`
}

func NewCallReconcileTask(payload CallReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallReconcile, data), nil
}

func ParseCallReconcilePayload(task *asynq.Task) (CallReconcilePayload, error) {
	var payload CallReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CallReconcilePayload{}, err
	}
	return payload, nil
}
