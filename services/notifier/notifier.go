// Package notifier delivers dispatched listings to a messaging destination.
//
// A Notifier starts NotReady. Connect blocks until the messaging side has
// produced its destination catalog, after which the Notifier is Ready and
// Send may be used.
package notifier

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"sjsage522/listingwatcher/services/settings"
)

// Status is the connection lifecycle of a Notifier
type Status int32

const (
	NotReady Status = iota
	Ready
)

func (s Status) String() string {
	if s == Ready {
		return "ready"
	}
	return "not_ready"
}

// Message is a formatted notification. When ImageURL is set the text is sent
// as the image caption.
type Message struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// Notifier defines the interface for delivering messages to destinations
type Notifier interface {
	// Connect blocks until the notifier is Ready or ctx is done
	Connect(ctx context.Context) error

	// Status returns the current lifecycle state
	Status() Status

	// Destinations returns the catalog captured when the notifier became Ready
	Destinations() []settings.Destination

	// Send delivers msg to the destination
	Send(ctx context.Context, destinationID string, msg Message) error

	// Close releases the connection
	Close() error
}

// PairingSource is implemented by notifiers whose messaging session needs a
// pairing step (a QR payload) before it becomes Ready
type PairingSource interface {
	PairingCode(ctx context.Context) (string, error)
}

// status is an atomically updated Status
type status struct {
	v atomic.Int32
}

func (s *status) get() Status  { return Status(s.v.Load()) }
func (s *status) set(v Status) { s.v.Store(int32(v)) }

// BuildCatalog turns raw id→name pairs into the destination catalog. Only
// group (@g.us) and direct (@c.us) chats are offered when ids carry a domain;
// an empty name falls back to the user part of the id. The catalog is sorted
// by name.
func BuildCatalog(raw map[string]string) []settings.Destination {
	catalog := make([]settings.Destination, 0, len(raw))
	for id, name := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if at := strings.IndexByte(id, '@'); at >= 0 {
			domain := id[at+1:]
			if domain != "g.us" && domain != "c.us" {
				continue
			}
		}

		name = strings.TrimSpace(name)
		if name == "" {
			name, _, _ = strings.Cut(id, "@")
		}
		catalog = append(catalog, settings.Destination{ID: id, Name: name})
	}

	sort.Slice(catalog, func(i, j int) bool {
		if catalog[i].Name == catalog[j].Name {
			return catalog[i].ID < catalog[j].ID
		}
		return catalog[i].Name < catalog[j].Name
	})
	return catalog
}

// ParseDestinations parses "id=name,id=name" into raw catalog pairs
func ParseDestinations(list string) map[string]string {
	raw := make(map[string]string)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, name, _ := strings.Cut(part, "=")
		raw[strings.TrimSpace(id)] = strings.TrimSpace(name)
	}
	return raw
}
