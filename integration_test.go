package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingwatcher/helpers"
	"sjsage522/listingwatcher/internal/crawler"
	"sjsage522/listingwatcher/services/cache"
	"sjsage522/listingwatcher/services/control"
	"sjsage522/listingwatcher/services/dispatchlog"
	"sjsage522/listingwatcher/services/notifier"
	"sjsage522/listingwatcher/services/seen"
	"sjsage522/listingwatcher/services/settings"
	"sjsage522/listingwatcher/services/worker"
)

// This is a simple test HTML that mimics the board's listing page
const testHTML = `
<!DOCTYPE html>
<html>
<head>
    <title>Доска объявлений</title>
</head>
<body>
    <div class="d-post">
        <a class="d-post_link" href="/posts/1"></a>
        <div class="d-post_desc">Велосипед детский</div>
        <div class="d-post_price">3 000 ₽</div>
        <img src="/img/1.jpg" alt="" />
        <div class="d-post_date">Сегодня, 12:00</div>
        <div class="d-post_text">Состояние отличное</div>
    </div>
    <div class="d-post">
        <a class="d-post_link" href="/posts/2"></a>
        <div class="d-post_desc">Шкаф</div>
        <div class="d-post_price">8 500 ₽</div>
        <div class="d-post_date">Вчера, 18:30</div>
    </div>
    <div class="d-post">
        <a class="d-post_link" href="/posts/3"></a>
        <div class="d-post_desc">Стол письменный</div>
        <div class="d-post_price">4 200 ₽</div>
        <div class="d-post_date">Сегодня, 09:15</div>
    </div>
</body>
</html>
`

const boardBase = "https://doska.ykt.ru"

type app struct {
	board    *httptest.Server
	hits     *atomic.Int32
	status   *atomic.Int32
	worker   *worker.Worker
	control  http.Handler
	settings *settings.Store
	history  *dispatchlog.Log
	seenPath string
}

// newApp wires the real components the way main does, against a local board
func newApp(t *testing.T, n notifier.Notifier, seenPath string) *app {
	t.Helper()

	a := &app{hits: &atomic.Int32{}, status: &atomic.Int32{}, seenPath: seenPath}
	a.status.Store(http.StatusOK)
	a.board = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(int(a.status.Load()))
		io.WriteString(w, testHTML)
	}))
	t.Cleanup(a.board.Close)

	// Links resolve against the real site so listing URLs stay stable across
	// boards on different ports
	profile := crawler.DefaultProfile()
	profile.ListURL = a.board.URL + "/"
	extractor, err := crawler.NewExtractor(profile)
	require.NoError(t, err)

	source := crawler.NewHTTPSource(crawler.SourceConfig{
		Name:      "board",
		URL:       profile.ListURL,
		BlockTime: time.Minute,
	}, cache.NewMemoryCache())

	store, err := seen.NewFileStore(seenPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, n.Connect(context.Background()))

	a.settings = settings.NewStore(settings.Filter{MaxPrice: 999999, DateBucket: settings.DateToday})
	a.settings.SetCatalog(n.Destinations())
	a.history = dispatchlog.New()

	a.worker = worker.NewWorker(worker.Dependencies{
		Source:      source,
		Extractor:   extractor,
		Seen:        store,
		Settings:    a.settings,
		Notifier:    n,
		DispatchLog: a.history,
		Logger:      helpers.NewLogger(""),
	}, time.Hour, 5*time.Second)

	a.control = control.NewServer(":0", control.Dependencies{
		Settings:    a.settings,
		DispatchLog: a.history,
		Pipeline:    a.worker,
		Seen:        store,
	}).Handler()
	return a
}

func (a *app) set(t *testing.T, values url.Values) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/set", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.control.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (a *app) dispatched(t *testing.T) []dispatchlog.Entry {
	t.Helper()
	rec := httptest.NewRecorder()
	a.control.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/log", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []dispatchlog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	return entries
}

// TestIntegration tests the entire application flow
func TestIntegration(t *testing.T) {
	ctx := context.Background()
	console := notifier.NewConsoleNotifier(map[string]string{"1@g.us": "Семья", "status@broadcast": ""})
	a := newApp(t, console, filepath.Join(t.TempDir(), "seen.json"))

	// Nothing is fetched until a destination is chosen
	assert.Equal(t, worker.OutcomeNotConfigured, a.worker.RunCycle(ctx))
	assert.Zero(t, a.hits.Load())

	a.set(t, url.Values{"min": {"1000"}, "max": {"5000"}, "date": {"сегодня"}, "chat": {"1@g.us"}})

	assert.Equal(t, worker.OutcomeDispatched, a.worker.RunCycle(ctx))
	assert.Equal(t, worker.OutcomeDispatched, a.worker.RunCycle(ctx))
	assert.Equal(t, worker.OutcomeNoListing, a.worker.RunCycle(ctx))

	sent := console.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "1@g.us", sent[0].Destination)
	assert.Equal(t,
		"🆕 Объявление\n🔤 Велосипед детский\n💰 3000 ₽\n📅 сегодня, 12:00\n📄 Состояние отличное\n🔗 "+boardBase+"/posts/1",
		sent[0].Message.Text)
	assert.Equal(t, boardBase+"/img/1.jpg", sent[0].Message.ImageURL)
	assert.Contains(t, sent[1].Message.Text, "Стол письменный")
	assert.Contains(t, sent[1].Message.Text, "📄 —")

	entries := a.dispatched(t)
	require.Len(t, entries, 2)
	assert.Equal(t, boardBase+"/posts/3", entries[0].Listing.URL)
	assert.Equal(t, boardBase+"/posts/1", entries[1].Listing.URL)

	// The seen file holds both dispatched URLs in the plain array format
	raw, err := os.ReadFile(a.seenPath)
	require.NoError(t, err)
	var urls []string
	require.NoError(t, json.Unmarshal(raw, &urls))
	assert.ElementsMatch(t, []string{boardBase + "/posts/1", boardBase + "/posts/3"}, urls)

	// Widening the date bucket picks up yesterday's listing only
	a.set(t, url.Values{"max": {"10000"}, "date": {""}, "chat": {"1@g.us"}})
	assert.Equal(t, worker.OutcomeDispatched, a.worker.RunCycle(ctx))
	require.Len(t, console.Sent(), 3)
	assert.Contains(t, console.Sent()[2].Message.Text, "Шкаф")
}

func TestIntegrationRateLimitedBoard(t *testing.T) {
	ctx := context.Background()
	console := notifier.NewConsoleNotifier(map[string]string{"1@g.us": "Семья"})
	a := newApp(t, console, filepath.Join(t.TempDir(), "seen.json"))
	a.set(t, url.Values{"chat": {"1@g.us"}})

	a.status.Store(http.StatusTooManyRequests)
	assert.Equal(t, worker.OutcomeFetchFailed, a.worker.RunCycle(ctx))
	assert.Equal(t, int32(1), a.hits.Load())

	// The block is remembered, so the board is not hit again
	a.status.Store(http.StatusOK)
	assert.Equal(t, worker.OutcomeFetchFailed, a.worker.RunCycle(ctx))
	assert.Equal(t, int32(1), a.hits.Load())
	assert.Empty(t, console.Sent())
}

func TestIntegrationRestartKeepsSeen(t *testing.T) {
	ctx := context.Background()
	seenPath := filepath.Join(t.TempDir(), "seen.json")

	first := notifier.NewConsoleNotifier(map[string]string{"1@g.us": "Семья"})
	a := newApp(t, first, seenPath)
	a.set(t, url.Values{"chat": {"1@g.us"}})
	assert.Equal(t, worker.OutcomeDispatched, a.worker.RunCycle(ctx))

	second := notifier.NewConsoleNotifier(map[string]string{"1@g.us": "Семья"})
	restarted := newApp(t, second, seenPath)
	restarted.set(t, url.Values{"chat": {"1@g.us"}})
	assert.Equal(t, worker.OutcomeDispatched, restarted.worker.RunCycle(ctx))

	require.Len(t, first.Sent(), 1)
	assert.Contains(t, first.Sent()[0].Message.Text, boardBase+"/posts/1")

	require.Len(t, second.Sent(), 1)
	assert.Contains(t, second.Sent()[0].Message.Text, "Стол письменный")
	assert.Contains(t, second.Sent()[0].Message.Text, boardBase+"/posts/3")
	assert.NotEqual(t, a.board.URL, restarted.board.URL)

	// Only yesterday's listing is left and the filter wants today's
	assert.Equal(t, worker.OutcomeNoListing, restarted.worker.RunCycle(ctx))
}

func TestIntegrationRedisNotifier(t *testing.T) {
	// Skip this test if running in CI or without Redis
	if os.Getenv("CI") != "" {
		t.Skip("Skipping integration test in CI environment")
	}

	ctx := context.Background()
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 0})
	defer redisClient.Close()

	// Check if Redis is available by attempting a ping, skip test if not
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping integration test")
	}

	prefix := "listingwatcher_integration"
	keys := []string{prefix + ":destinations", prefix + ":outbox", prefix + ":pairing"}
	redisClient.Del(ctx, keys...)
	defer redisClient.Del(ctx, keys...)
	require.NoError(t, redisClient.HSet(ctx, prefix+":destinations", "1@g.us", "Семья").Err())

	n := notifier.NewRedisNotifier("localhost:6379", 0, prefix, 100)
	defer n.Close()
	a := newApp(t, n, filepath.Join(t.TempDir(), "seen.json"))
	a.set(t, url.Values{"chat": {"1@g.us"}})

	assert.Equal(t, worker.OutcomeDispatched, a.worker.RunCycle(ctx))

	entries, err := redisClient.XRange(ctx, prefix+":outbox", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	decoded, err := base64.StdEncoding.DecodeString(entries[0].Values["b64_message"].(string))
	require.NoError(t, err)
	var msg notifier.OutboxMessage
	require.NoError(t, json.Unmarshal(decoded, &msg))
	assert.Equal(t, "1@g.us", msg.Destination)
	assert.Contains(t, msg.Text, "Велосипед детский")
	assert.Equal(t, boardBase+"/img/1.jpg", msg.ImageURL)
}
