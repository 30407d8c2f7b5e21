package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub := bus.Subscribe(TopicWiringChanged, WithSubscriptionName("test"))
	defer sub.Close()

	bus.Publish(context.Background(), Envelope{
		Topic:   TopicWiringChanged,
		Source:  SourceWiring,
		Payload: WiringEvent{Action: ActionConnected, ConsumerID: "chronicle", Capability: "llm"},
	})

	select {
	case env := <-sub.C():
		payload, ok := env.Payload.(WiringEvent)
		if !ok {
			t.Fatalf("payload type %T", env.Payload)
		}
		if payload.ConsumerID != "chronicle" || payload.Action != ActionConnected {
			t.Errorf("payload = %+v", payload)
		}
		if env.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSubscribeTopicIsolation(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	wiring := bus.Subscribe(TopicWiringChanged)
	instances := bus.Subscribe(TopicInstancesChanged)

	bus.Publish(context.Background(), Envelope{Topic: TopicInstancesChanged, Payload: InstanceEvent{Action: ActionCreated}})

	select {
	case <-instances.C():
	case <-time.After(time.Second):
		t.Fatal("instance subscriber missed event")
	}
	select {
	case env := <-wiring.C():
		t.Fatalf("wiring subscriber received %+v", env)
	default:
	}
}

func TestDropOldestWhenFull(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub := bus.Subscribe(TopicWiringChanged, WithSubscriptionBuffer(1))
	ctx := context.Background()

	bus.Publish(ctx, Envelope{Topic: TopicWiringChanged, Payload: WiringEvent{Capability: "first"}})
	bus.Publish(ctx, Envelope{Topic: TopicWiringChanged, Payload: WiringEvent{Capability: "second"}})

	env := <-sub.C()
	if env.Payload.(WiringEvent).Capability != "second" {
		t.Errorf("expected newest event to survive, got %+v", env.Payload)
	}
	if sub.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", sub.Dropped())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub := bus.Subscribe(TopicOutputsChanged)
	sub.Close()
	sub.Close() // must not panic

	if _, open := <-sub.C(); open {
		t.Error("channel should be closed")
	}
}

func TestNilBusIsNoOp(t *testing.T) {
	var bus *Bus
	bus.Publish(context.Background(), Envelope{Topic: TopicWiringChanged})
	bus.Shutdown()

	sub := bus.Subscribe(TopicWiringChanged)
	if _, open := <-sub.C(); open {
		t.Error("nil-bus subscription channel should be closed")
	}
	sub.Close()
}

func TestContextBoundSubscription(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub := bus.Subscribe(TopicWiringChanged, WithContext(ctx))
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-sub.C():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("subscription not closed after context cancellation")
		}
	}
}

type captureObserver struct {
	seen []Envelope
}

func (c *captureObserver) OnPublish(env Envelope) {
	c.seen = append(c.seen, env)
}

func TestObserverSeesAllTopics(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	obs := &captureObserver{}
	bus.AddObserver(obs)

	ctx := context.Background()
	bus.Publish(ctx, Envelope{Topic: TopicWiringChanged})
	bus.Publish(ctx, Envelope{Topic: TopicSettingsChanged})

	if len(obs.seen) != 2 {
		t.Errorf("observer saw %d events, want 2", len(obs.seen))
	}
}
