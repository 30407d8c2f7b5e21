// Package eventbus carries engine change notifications to in-process
// consumers: the websocket event stream, the event counter, and anything a
// future transport wants to observe.
package eventbus

import "time"

// Topic identifies a logical channel on the bus.
type Topic string

const (
	TopicInstancesChanged Topic = "instances.changed"
	TopicWiringChanged    Topic = "wiring.changed"
	TopicOutputsChanged   Topic = "outputs.changed"
	TopicSettingsChanged  Topic = "settings.changed"
)

// Source describes which component produced an event.
type Source string

const (
	SourceInstances Source = "instances"
	SourceWiring    Source = "wiring"
	SourceOutputs   Source = "outputs"
	SourceSettings  Source = "settings"
	SourceUnknown   Source = "unknown"
)

// Envelope wraps every message published on the bus.
type Envelope struct {
	Topic     Topic
	Timestamp time.Time
	Source    Source
	Payload   any
}

// Actions carried by change events.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionConnected    = "connected"
	ActionDisconnected = "disconnected"
)

// InstanceEvent is published on TopicInstancesChanged.
type InstanceEvent struct {
	Action     string `json:"action"`
	InstanceID string `json:"instance_id"`
	TemplateID string `json:"template_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// WiringEvent is published on TopicWiringChanged.
type WiringEvent struct {
	Action       string `json:"action"`
	ConsumerID   string `json:"consumer_id"`
	Capability   string `json:"capability"`
	ProviderKind string `json:"provider_kind,omitempty"`
	ProviderID   string `json:"provider_id,omitempty"`
}

// OutputWireEvent is published on TopicOutputsChanged.
type OutputWireEvent struct {
	Action           string `json:"action"`
	WireID           string `json:"wire_id"`
	SourceInstanceID string `json:"source_instance_id,omitempty"`
	TargetInstanceID string `json:"target_instance_id,omitempty"`
	TargetEnvVar     string `json:"target_env_var,omitempty"`
}

// SettingEvent is published on TopicSettingsChanged. Values are never
// carried on the bus; secrets must not transit the event stream.
type SettingEvent struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}
