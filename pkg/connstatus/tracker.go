package connstatus

import (
	"context"
	"time"
)

// Identity is the provider-supplied identity of a linked account.
type Identity struct {
	Email       string
	DisplayName string
	AvatarURL   string
}

// Tracker is the write-side helper the background sync job and the account
// link/unlink actions use to report lifecycle changes as patches.
type Tracker struct {
	store   Store
	subject string
}

// NewTracker creates a tracker writing status for one subject.
func NewTracker(store Store, subjectID string) *Tracker {
	return &Tracker{store: store, subject: subjectID}
}

// Connected records a successful account link with its identity.
func (t *Tracker) Connected(ctx context.Context, id Identity) error {
	_, err := t.store.Apply(ctx, t.subject, Patch{
		Connected:   Ptr(true),
		Email:       Ptr(id.Email),
		DisplayName: Ptr(id.DisplayName),
		AvatarURL:   Ptr(id.AvatarURL),
	})
	return err
}

// Disconnected records an account unlink. Idempotent: repeating the patch
// yields the same state.
func (t *Tracker) Disconnected(ctx context.Context) error {
	_, err := t.store.Apply(ctx, t.subject, Patch{
		Connected: Ptr(false),
		Onboarded: Ptr(false),
	})
	return err
}

// SyncStarted records the beginning of a sync run and its expected size.
// The completion marker is reset so the run reads as in progress.
func (t *Tracker) SyncStarted(ctx context.Context, totalUnits int) error {
	now := time.Now()
	_, err := t.store.Apply(ctx, t.subject, Patch{
		SyncStartedAt:   &now,
		SyncCompletedAt: Ptr(time.Time{}),
		SyncTotalUnits:  Ptr(totalUnits),
		SyncSyncedUnits: Ptr(0),
	})
	return err
}

// Progress records the number of units synced so far.
func (t *Tracker) Progress(ctx context.Context, syncedUnits int) error {
	_, err := t.store.Apply(ctx, t.subject, Patch{
		SyncSyncedUnits: Ptr(syncedUnits),
	})
	return err
}

// SyncCompleted records the end of the current sync run.
func (t *Tracker) SyncCompleted(ctx context.Context) error {
	now := time.Now()
	_, err := t.store.Apply(ctx, t.subject, Patch{
		SyncCompletedAt: &now,
	})
	return err
}

// OnboardingCompleted marks initial onboarding as done.
func (t *Tracker) OnboardingCompleted(ctx context.Context) error {
	_, err := t.store.Apply(ctx, t.subject, Patch{
		Onboarded: Ptr(true),
	})
	return err
}
