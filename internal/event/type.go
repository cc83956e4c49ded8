package event

import "time"

// DatasetEventsQueue carries mutation signals for external collaborators
// (favorites cleanup, notification fan-out). This service only publishes;
// delivery and retry policy belong to the consumers.
const DatasetEventsQueue = "dataset_events"

type DatasetEventType string

const (
	DatasetCreated DatasetEventType = "dataset.created"
	DatasetUpdated DatasetEventType = "dataset.updated"
	DatasetDeleted DatasetEventType = "dataset.deleted"
)

type DatasetEventMessage struct {
	EventType   DatasetEventType `json:"event_type"`
	DatasetID   string           `json:"dataset_id"`
	Address     string           `json:"address"`
	OwnerID     string           `json:"owner_id"`
	DisplayName string           `json:"display_name"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
