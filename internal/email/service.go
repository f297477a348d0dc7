package email

import (
	"context"
)

// Sender is the transactional transport boundary. The engine never
// talks to it directly; the dispatch worker sends between selection
// and recording.
type Sender interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}
