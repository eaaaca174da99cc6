package notifier

import (
	"context"
	"slices"
	"sync"

	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
	"sjsage522/listingwatcher/services/settings"
)

// SentMessage is a message accepted by the console notifier
type SentMessage struct {
	Destination string
	Message     Message
}

// ConsoleNotifier logs messages instead of delivering them. Its catalog is
// fixed at construction; it is used for local runs and tests.
type ConsoleNotifier struct {
	status  status
	catalog []settings.Destination

	mu   sync.Mutex
	sent []SentMessage
	log  *logger.Logger
}

// NewConsoleNotifier creates a console notifier offering the given destinations
func NewConsoleNotifier(destinations map[string]string) *ConsoleNotifier {
	return &ConsoleNotifier{
		catalog: BuildCatalog(destinations),
		log:     logger.ForNotifier().WithField("notifier", "console"),
	}
}

// Connect becomes Ready immediately
func (n *ConsoleNotifier) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.status.set(Ready)
	n.log.Info().Int("destinations", len(n.catalog)).Msg("Console notifier ready")
	return nil
}

// Status returns the lifecycle state
func (n *ConsoleNotifier) Status() Status {
	return n.status.get()
}

// Destinations returns the catalog
func (n *ConsoleNotifier) Destinations() []settings.Destination {
	return slices.Clone(n.catalog)
}

// Send logs the message
func (n *ConsoleNotifier) Send(ctx context.Context, destinationID string, msg Message) error {
	if n.Status() != Ready {
		return apperrors.NewNotReady("console")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewDispatch("console", "context done", err)
	}

	n.mu.Lock()
	n.sent = append(n.sent, SentMessage{Destination: destinationID, Message: msg})
	n.mu.Unlock()

	n.log.Info().
		Str("destination", destinationID).
		Bool("with_image", msg.ImageURL != "").
		Msg(msg.Text)
	return nil
}

// Sent returns every message accepted so far
func (n *ConsoleNotifier) Sent() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.sent)
}

// Close is a no-op
func (n *ConsoleNotifier) Close() error {
	return nil
}
