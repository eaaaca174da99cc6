package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingwatcher/internal/crawler"
	apperrors "sjsage522/listingwatcher/pkg/errors"
	"sjsage522/listingwatcher/services/settings"
)

func TestFormatListing(t *testing.T) {
	msg := FormatListing(crawler.Listing{
		Title:            "Велосипед",
		Price:            15000,
		URL:              "https://doska.ykt.ru/posts/1",
		ImageURL:         "https://doska.ykt.ru/img/1.jpg",
		DateLabel:        "сегодня, 12:30",
		ShortDescription: "Почти новый",
	})

	assert.Equal(t, "🆕 Объявление\n🔤 Велосипед\n💰 15000 ₽\n📅 сегодня, 12:30\n📄 Почти новый\n🔗 https://doska.ykt.ru/posts/1", msg.Text)
	assert.Equal(t, "https://doska.ykt.ru/img/1.jpg", msg.ImageURL)
}

func TestFormatListingWithoutDescriptionOrImage(t *testing.T) {
	msg := FormatListing(crawler.Listing{Title: "Стол", URL: "https://doska.ykt.ru/posts/2"})

	assert.Contains(t, msg.Text, "📄 —\n")
	assert.Contains(t, msg.Text, "💰 0 ₽")
	assert.Empty(t, msg.ImageURL)
}

func TestBuildCatalog(t *testing.T) {
	catalog := BuildCatalog(map[string]string{
		"111@g.us":         "Семья",
		"79140000000@c.us": "",
		"status@broadcast": "Status",
		"222@newsletter":   "Channel",
		"plain-id":         "Plain",
		"  ":               "blank",
	})

	assert.Equal(t, []settings.Destination{
		{ID: "79140000000@c.us", Name: "79140000000"},
		{ID: "plain-id", Name: "Plain"},
		{ID: "111@g.us", Name: "Семья"},
	}, catalog)
}

func TestParseDestinations(t *testing.T) {
	raw := ParseDestinations(" 1@g.us = Семья ,2@c.us,, ")
	assert.Equal(t, map[string]string{"1@g.us": "Семья", "2@c.us": ""}, raw)
	assert.Empty(t, ParseDestinations(""))
}

func TestConsoleNotifierLifecycle(t *testing.T) {
	n := NewConsoleNotifier(map[string]string{"1@g.us": "Семья"})
	defer n.Close()

	assert.Equal(t, NotReady, n.Status())
	err := n.Send(context.Background(), "1@g.us", Message{Text: "early"})
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotReady))

	require.NoError(t, n.Connect(context.Background()))
	assert.Equal(t, Ready, n.Status())
	assert.Equal(t, "ready", n.Status().String())
	assert.Equal(t, []settings.Destination{{ID: "1@g.us", Name: "Семья"}}, n.Destinations())

	require.NoError(t, n.Send(context.Background(), "1@g.us", Message{Text: "hello", ImageURL: "https://x/1.jpg"}))
	sent := n.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "1@g.us", sent[0].Destination)
	assert.Equal(t, "hello", sent[0].Message.Text)
}

func TestConsoleNotifierConnectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewConsoleNotifier(nil)
	assert.ErrorIs(t, n.Connect(ctx), context.Canceled)
	assert.Equal(t, NotReady, n.Status())
}
