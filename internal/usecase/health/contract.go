package health

import "context"

// DBPinger checks catalog database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexPinger checks search index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an upstream provider (embeddings, LLM).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
