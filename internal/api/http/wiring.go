package http

// ProviderRef identifies a wired provider: kind "template" or "instance".
type ProviderRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// WiringEdgeEntry describes one capability assignment.
type WiringEdgeEntry struct {
	ConsumerID string      `json:"consumer_id"`
	Capability string      `json:"capability"`
	Provider   ProviderRef `json:"provider"`
	UpdatedAt  string      `json:"updated_at"`
}

// WiringOverview is returned by GET /wiring.
type WiringOverview struct {
	Edges []WiringEdgeEntry `json:"edges"`
}

// WiringConnectRequest is accepted by PUT /instances/{id}/wiring/{capability}.
type WiringConnectRequest struct {
	Provider ProviderRef `json:"provider"`
}

// OrphanEntry is one wiring edge with a dead reference.
type OrphanEntry struct {
	Edge   WiringEdgeEntry `json:"edge"`
	Reason string          `json:"reason"`
}

// OrphansOverview is returned by GET /wiring/orphans.
type OrphansOverview struct {
	Orphans []OrphanEntry `json:"orphans"`
}

// ProviderResolution is returned by GET /instances/{id}/wiring/{capability}.
// State is one of "wired", "default", "orphaned", or "unresolved";
// Provider is present for all but "unresolved".
type ProviderResolution struct {
	Capability string       `json:"capability"`
	State      string       `json:"state"`
	Provider   *ProviderRef `json:"provider,omitempty"`
}
