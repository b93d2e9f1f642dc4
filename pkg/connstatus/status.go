package connstatus

import "time"

// ConnectionStatus is the externally-authoritative state of a linked mailbox
// account and its background sync progress. The authoritative copy lives in a
// Store; everything a client holds is a read-only projection merged from a
// snapshot plus incremental patches.
type ConnectionStatus struct {
	Connected   bool   `json:"connected"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Onboarded   bool   `json:"onboarded"`

	SyncStartedAt   *time.Time `json:"sync_started_at,omitempty"`
	SyncCompletedAt *time.Time `json:"sync_completed_at,omitempty"`
	SyncTotalUnits  *int       `json:"sync_total_units,omitempty"`
	SyncSyncedUnits *int       `json:"sync_synced_units,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Patch is a partial update. Only non-nil fields are applied on merge;
// absent fields never overwrite cached values.
type Patch struct {
	Connected   *bool   `json:"connected,omitempty"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Onboarded   *bool   `json:"onboarded,omitempty"`

	SyncStartedAt   *time.Time `json:"sync_started_at,omitempty"`
	SyncCompletedAt *time.Time `json:"sync_completed_at,omitempty"`
	SyncTotalUnits  *int       `json:"sync_total_units,omitempty"`
	SyncSyncedUnits *int       `json:"sync_synced_units,omitempty"`
}

// IsZero reports whether the patch carries no fields at all.
func (p Patch) IsZero() bool {
	return p.Connected == nil && p.Email == nil && p.DisplayName == nil &&
		p.AvatarURL == nil && p.Onboarded == nil && p.SyncStartedAt == nil &&
		p.SyncCompletedAt == nil && p.SyncTotalUnits == nil && p.SyncSyncedUnits == nil
}

// Merge returns a copy of the status with the patch's present fields applied.
// The receiver is not modified.
func (s ConnectionStatus) Merge(p Patch) ConnectionStatus {
	if p.Connected != nil {
		s.Connected = *p.Connected
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.DisplayName != nil {
		s.DisplayName = *p.DisplayName
	}
	if p.AvatarURL != nil {
		s.AvatarURL = *p.AvatarURL
	}
	if p.Onboarded != nil {
		s.Onboarded = *p.Onboarded
	}
	if p.SyncStartedAt != nil {
		s.SyncStartedAt = p.SyncStartedAt
	}
	if p.SyncCompletedAt != nil {
		s.SyncCompletedAt = p.SyncCompletedAt
	}
	if p.SyncTotalUnits != nil {
		s.SyncTotalUnits = p.SyncTotalUnits
	}
	if p.SyncSyncedUnits != nil {
		s.SyncSyncedUnits = p.SyncSyncedUnits
	}
	return s
}

// SyncInProgress reports whether a sync has started but not completed.
// A zero timestamp counts as unset: patches cannot remove a field, so a new
// sync run clears the previous completion marker by writing the zero time.
func (s ConnectionStatus) SyncInProgress() bool {
	started := s.SyncStartedAt != nil && !s.SyncStartedAt.IsZero()
	completed := s.SyncCompletedAt != nil && !s.SyncCompletedAt.IsZero()
	return started && !completed
}

// Ptr returns a pointer to v. Convenience for building patches.
func Ptr[T any](v T) *T { return &v }
