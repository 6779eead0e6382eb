package interfaces

import (
	"context"

	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
)

// Notifier shows transient notifications to the user. Implementations must
// not block: a notice is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n notice.Notice)
}
