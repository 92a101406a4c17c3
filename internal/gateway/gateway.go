// Package gateway wraps the platform notification capability behind a
// narrow contract. The scheduling engine is the sole writer of the
// pending set; every call may fail and failures are treated as
// degraded functionality, never as ledger errors.
package gateway

import (
	"context"

	"billdue-backend-go/internal/models"
)

// Gateway is the external collaborator contract for scheduled
// notifications. Implementations must make Schedule idempotent per
// instance id: scheduling an id that is already pending replaces it.
type Gateway interface {
	// IsAvailable reports whether the runtime supports scheduled
	// notifications at all. When false, all other calls are no-ops.
	IsAvailable() bool

	// Schedule registers the given instances to fire at their FiresAt
	// times, replacing any pending instance with the same id.
	Schedule(ctx context.Context, instances []models.NotificationInstance) error

	// Cancel removes the pending instances with the given ids. Unknown
	// ids are ignored.
	Cancel(ctx context.Context, ids []int) error

	// ListPending returns a snapshot of the currently pending instances.
	ListPending(ctx context.Context) ([]models.NotificationInstance, error)

	// CheckPermission reports whether the user has granted notification
	// permission.
	CheckPermission(ctx context.Context) (bool, error)

	// RequestPermission prompts for notification permission and reports
	// the outcome.
	RequestPermission(ctx context.Context) (bool, error)
}
