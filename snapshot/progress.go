// ABOUTME: Progress reporting and cooperative cancellation plumbing
// ABOUTME: The engine never assumes a dispatcher; callers move this off-thread if hosted

package snapshot

import "context"

// ProgressFunc is invoked at fixed milestones during Initialize. status is a
// short human string ("Building edge indexes", "Building retainers", …),
// value/total describe coarse progress within that milestone (both 0 when
// the milestone is a single atomic step).
type ProgressFunc func(status string, value, total int)

func noopProgress(string, int, int) {}

// checkCancel returns ErrCancelled if ctx has been cancelled. Initialize
// calls it between pipeline phases only; no pass checks it inside its own
// loops, so a phase that has started runs to completion.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}
