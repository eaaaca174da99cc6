package notifier

import (
	"fmt"

	"sjsage522/listingwatcher/internal/crawler"
)

// FormatListing renders the notification for a listing
func FormatListing(l crawler.Listing) Message {
	description := l.ShortDescription
	if description == "" {
		description = "—"
	}

	text := fmt.Sprintf("🆕 Объявление\n🔤 %s\n💰 %d ₽\n📅 %s\n📄 %s\n🔗 %s",
		l.Title, l.Price, l.DateLabel, description, l.URL)

	return Message{
		Text:     text,
		ImageURL: l.ImageURL,
	}
}
