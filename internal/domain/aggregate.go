package domain

// SourceCounts breaks the aggregate down by the four sources it is computed
// from. Kept visible so consumers can explain the total.
type SourceCounts struct {
	RelationshipTable         int `json:"relationship_table"`
	RelationshipNotifications int `json:"relationship_notifications"`
	CollectionTable           int `json:"collection_table"`
	CollectionNotifications   int `json:"collection_notifications"`
}

// RawSum adds the four counts without deduplication. An invitation that also
// produced a notification row counts twice here.
func (c SourceCounts) RawSum() int {
	return c.RelationshipTable + c.RelationshipNotifications + c.CollectionTable + c.CollectionNotifications
}

// AggregateInvitationState is the single pending-invitations signal the
// aggregator publishes. PendingCount is always the result of a full
// reconciliation, never an incrementally patched value.
type AggregateInvitationState struct {
	PendingCount int          `json:"pending_count"`
	Sources      SourceCounts `json:"sources"`
}
