package events

import "time"

// ProviderQueryStart is emitted before a provider executes a query tree.
type ProviderQueryStart struct {
	Backend string
	Query   string
}

// ProviderQueryFinish is emitted after a provider query completes.
type ProviderQueryFinish struct {
	Backend  string
	Query    string
	Err      error
	Duration time.Duration
}
