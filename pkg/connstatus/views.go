package connstatus

import (
	"fmt"
	"math"
)

// ProgressPercent returns the normalized sync progress percentage, or nil
// when the total is unknown or zero. The upstream synced count is clamped:
// an over-reporting provider never yields more than 100.
func (s ConnectionStatus) ProgressPercent() *int {
	if s.SyncTotalUnits == nil || *s.SyncTotalUnits <= 0 {
		return nil
	}

	synced := 0
	if s.SyncSyncedUnits != nil {
		synced = max(*s.SyncSyncedUnits, 0)
	}

	pct := int(math.Round(float64(synced) / float64(*s.SyncTotalUnits) * 100))
	pct = min(pct, 100)
	return &pct
}

// ProgressLabel returns a human-readable description of sync progress:
// unit counts when both are known, a partial count when only the synced
// number is known, and a generic phrase otherwise.
func (s ConnectionStatus) ProgressLabel() string {
	switch {
	case s.SyncTotalUnits != nil && *s.SyncTotalUnits > 0 && s.SyncSyncedUnits != nil:
		synced := min(max(*s.SyncSyncedUnits, 0), *s.SyncTotalUnits)
		return fmt.Sprintf("%d of %d items synced", synced, *s.SyncTotalUnits)
	case s.SyncSyncedUnits != nil:
		return fmt.Sprintf("%d items synced", max(*s.SyncSyncedUnits, 0))
	default:
		return "Sync in progress"
	}
}

// ShowSetupBanner reports whether the owner should surface setup/progress UI:
// the account is connected and either onboarding is incomplete or a sync is
// in flight.
func (s ConnectionStatus) ShowSetupBanner() bool {
	return s.Connected && (!s.Onboarded || s.SyncInProgress())
}
