package shared

import (
	"encoding/json"
	"time"
)

// EventType names a domain event. Each type maps onto a Redis pub/sub
// channel so web clients can react without polling.
type EventType string

const (
	EventMatchCreated      EventType = "match.created"
	EventMessageSent       EventType = "message.sent"
	EventRunnerWentOnline  EventType = "presence.went_online"
	EventRunnerWentOffline EventType = "presence.went_offline"
	EventProfileSynced     EventType = "profile.synced"
)

// Event is implemented by every domain event.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	AggregateID() string
	Payload() map[string]interface{}
}

// EventPublisher pushes domain events to subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventEnvelope is the wire form of an event on the pub/sub channel.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// MatchCreatedEvent is emitted when two runners are matched.
type MatchCreatedEvent struct {
	MatchID   string
	User1ID   string
	User2ID   string
	MatchedAt time.Time
	At        time.Time
}

func NewMatchCreatedEvent(matchID, user1ID, user2ID string, matchedAt time.Time) MatchCreatedEvent {
	return MatchCreatedEvent{
		MatchID:   matchID,
		User1ID:   user1ID,
		User2ID:   user2ID,
		MatchedAt: matchedAt,
		At:        time.Now().UTC(),
	}
}

func (e MatchCreatedEvent) EventType() EventType  { return EventMatchCreated }
func (e MatchCreatedEvent) OccurredAt() time.Time { return e.At }
func (e MatchCreatedEvent) AggregateID() string   { return e.MatchID }

func (e MatchCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"match_id":   e.MatchID,
		"user1_id":   e.User1ID,
		"user2_id":   e.User2ID,
		"matched_at": e.MatchedAt.Format(time.RFC3339),
	}
}

// MessageSentEvent is emitted when a message is persisted in a match chat.
type MessageSentEvent struct {
	MessageID   string
	MatchID     string
	SenderID    string
	Content     string
	MessageType string
	At          time.Time
}

func NewMessageSentEvent(messageID, matchID, senderID, content, messageType string) MessageSentEvent {
	return MessageSentEvent{
		MessageID:   messageID,
		MatchID:     matchID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		At:          time.Now().UTC(),
	}
}

func (e MessageSentEvent) EventType() EventType  { return EventMessageSent }
func (e MessageSentEvent) OccurredAt() time.Time { return e.At }
func (e MessageSentEvent) AggregateID() string   { return e.MatchID }

func (e MessageSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"message_id":   e.MessageID,
		"match_id":     e.MatchID,
		"sender_id":    e.SenderID,
		"content":      e.Content,
		"message_type": e.MessageType,
	}
}

// RunnerWentOnlineEvent is emitted when a heartbeat marks a runner online.
type RunnerWentOnlineEvent struct {
	RunnerID string
	At       time.Time
}

func NewRunnerWentOnlineEvent(runnerID string) RunnerWentOnlineEvent {
	return RunnerWentOnlineEvent{RunnerID: runnerID, At: time.Now().UTC()}
}

func (e RunnerWentOnlineEvent) EventType() EventType  { return EventRunnerWentOnline }
func (e RunnerWentOnlineEvent) OccurredAt() time.Time { return e.At }
func (e RunnerWentOnlineEvent) AggregateID() string   { return e.RunnerID }

func (e RunnerWentOnlineEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"runner_id": e.RunnerID}
}

// RunnerWentOfflineEvent is emitted when a runner's presence key expires.
type RunnerWentOfflineEvent struct {
	RunnerID   string
	LastSeenAt time.Time
	At         time.Time
}

func NewRunnerWentOfflineEvent(runnerID string, lastSeenAt time.Time) RunnerWentOfflineEvent {
	return RunnerWentOfflineEvent{RunnerID: runnerID, LastSeenAt: lastSeenAt, At: time.Now().UTC()}
}

func (e RunnerWentOfflineEvent) EventType() EventType  { return EventRunnerWentOffline }
func (e RunnerWentOfflineEvent) OccurredAt() time.Time { return e.At }
func (e RunnerWentOfflineEvent) AggregateID() string   { return e.RunnerID }

func (e RunnerWentOfflineEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"runner_id":    e.RunnerID,
		"last_seen_at": e.LastSeenAt.Format(time.RFC3339),
	}
}

// ProfileSyncedEvent is emitted when a profile is created or updated via sync.
type ProfileSyncedEvent struct {
	RunnerID string
	Created  bool
	At       time.Time
}

func NewProfileSyncedEvent(runnerID string, created bool) ProfileSyncedEvent {
	return ProfileSyncedEvent{RunnerID: runnerID, Created: created, At: time.Now().UTC()}
}

func (e ProfileSyncedEvent) EventType() EventType  { return EventProfileSynced }
func (e ProfileSyncedEvent) OccurredAt() time.Time { return e.At }
func (e ProfileSyncedEvent) AggregateID() string   { return e.RunnerID }

func (e ProfileSyncedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"runner_id": e.RunnerID,
		"created":   e.Created,
	}
}
