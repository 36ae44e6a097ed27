package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(topics ...string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	patientID := uuid.New()
	topic := PatientTopic(patientID)

	client := newTestClient(topic)
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", hub.ClientCount())
	}
	if hub.TopicCount(topic) != 1 {
		t.Fatalf("TopicCount(%q) = %d, want 1", topic, hub.TopicCount(topic))
	}

	event := Event{
		Type:      "case_study.state",
		Topic:     topic,
		PatientID: patientID.String(),
		State:     "requesting",
		Timestamp: time.Now().UTC(),
	}
	hub.Broadcast(topic, event)

	select {
	case data := <-client.Send:
		var got Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if got.State != "requesting" {
			t.Errorf("State = %q, want requesting", got.State)
		}
		if got.PatientID != patientID.String() {
			t.Errorf("PatientID = %q, want %s", got.PatientID, patientID)
		}
	default:
		t.Fatal("expected event on client Send channel")
	}
}

func TestHub_BroadcastOnlyToTopicSubscribers(t *testing.T) {
	hub := NewHub()
	topicA := PatientTopic(uuid.New())
	topicB := PatientTopic(uuid.New())

	clientA := newTestClient(topicA)
	clientB := newTestClient(topicB)
	hub.Register(clientA)
	hub.Register(clientB)

	hub.Broadcast(topicA, Event{Type: "case_study.state", Topic: topicA})

	if len(clientA.Send) != 1 {
		t.Errorf("clientA should have received 1 event, got %d", len(clientA.Send))
	}
	if len(clientB.Send) != 0 {
		t.Errorf("clientB should have received 0 events, got %d", len(clientB.Send))
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	topic := PatientTopic(uuid.New())
	client := newTestClient(topic)

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}
	if hub.TopicCount(topic) != 0 {
		t.Errorf("TopicCount() = %d after unregister, want 0", hub.TopicCount(topic))
	}

	// Send channel must be closed
	if _, open := <-client.Send; open {
		t.Error("Send channel should be closed after unregister")
	}

	// Double unregister must not panic
	hub.Unregister(client)
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := newTestClient()
	hub.Register(client)

	topic := PatientTopic(uuid.New())
	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{topic}})
	if hub.TopicCount(topic) != 1 {
		t.Fatalf("TopicCount() = %d after subscribe, want 1", hub.TopicCount(topic))
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{topic}})
	if hub.TopicCount(topic) != 0 {
		t.Fatalf("TopicCount() = %d after unsubscribe, want 0", hub.TopicCount(topic))
	}
	if len(client.Topics) != 0 {
		t.Errorf("client.Topics = %v after unsubscribe, want empty", client.Topics)
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub()
	topic := PatientTopic(uuid.New())
	client := &Client{ID: "slow", Topics: []string{topic}, Send: make(chan []byte)} // unbuffered
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(topic, Event{Topic: topic})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a slow client")
	}
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	topic := PatientTopic(uuid.New())
	client := newTestClient(topic)
	hub.Register(client)

	err := hub.Publish(context.Background(), Event{Topic: topic, State: "succeeded"})
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(client.Send) != 1 {
		t.Errorf("expected 1 event, got %d", len(client.Send))
	}
}
