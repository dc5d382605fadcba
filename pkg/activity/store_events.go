package activity

import (
	"strings"
	"time"
)

// EventInput describes the common fields for store lifecycle events.
type EventInput struct {
	StoreID    string
	ActionID   string
	Name       string
	Err        error
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Recipients []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildStoreCreatedEvent constructs a normalized activity event for store definition.
func BuildStoreCreatedEvent(input EventInput) Event {
	return buildStoreEvent("store.created", "store", input)
}

// BuildStateChangedEvent constructs a normalized activity event for a committed mutation.
func BuildStateChangedEvent(input EventInput) Event {
	return buildStoreEvent("store.state.changed", "store", input)
}

// BuildActionCompletedEvent constructs a normalized activity event for a finished dispatch.
func BuildActionCompletedEvent(input EventInput) Event {
	return buildStoreEvent("store.action.completed", "store.action", input)
}

func buildStoreEvent(verb, objectType string, input EventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.StoreID != "" {
		metadata = ensureMetadata(metadata)
		metadata["store_id"] = input.StoreID
	}
	if input.Name != "" {
		metadata = ensureMetadata(metadata)
		metadata["action"] = input.Name
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.ActionID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.StoreID)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Recipients: recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
