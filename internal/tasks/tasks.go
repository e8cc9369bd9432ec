// Package tasks defines the asynq task types and payloads exchanged between
// the services and the worker.
package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants.
const (
	// TypeEmailDelivery sends one email, fire-and-forget from the caller's
	// point of view.
	TypeEmailDelivery = "email:deliver"

	// TypePresenceSweep cleans board presence sets of members whose per-user
	// record has expired or points at another board. Scheduled periodically.
	TypePresenceSweep = "presence:sweep"
)

// EmailDeliveryPayload is the data for a TypeEmailDelivery task.
type EmailDeliveryPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// NewEmailDeliveryTask creates a TypeEmailDelivery task.
func NewEmailDeliveryTask(to, subject, html string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailDeliveryPayload{To: to, Subject: subject, HTML: html})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailDelivery, payload), nil
}

// NewPresenceSweepTask creates a TypePresenceSweep task. It carries no
// payload.
func NewPresenceSweepTask() *asynq.Task {
	return asynq.NewTask(TypePresenceSweep, nil)
}
