package control

import (
	"net/http"
	"strings"

	"sjsage522/listingwatcher/services/dispatchlog"
	"sjsage522/listingwatcher/services/settings"
	"sjsage522/listingwatcher/services/worker"
)

// StateResponse is the body of GET /state
type StateResponse struct {
	Ready         bool                   `json:"ready"`
	Filter        settings.Filter        `json:"filter"`
	Defaults      settings.Filter        `json:"defaults"`
	Destinations  []settings.Destination `json:"destinations"`
	DateBuckets   []string               `json:"date_buckets"`
	PipelineState string                 `json:"pipeline_state"`
	SeenCount     int                    `json:"seen_count"`
	Dispatched    int                    `json:"dispatched"`
}

func (s *Server) state() StateResponse {
	resp := StateResponse{
		Ready:         s.Settings.Ready(),
		Filter:        s.Settings.Snapshot(),
		Defaults:      s.Settings.Defaults(),
		Destinations:  s.Settings.Catalog(),
		DateBuckets:   settings.DateBuckets,
		PipelineState: worker.StateIdle.String(),
		Dispatched:    s.DispatchLog.Len(),
	}
	if resp.Destinations == nil {
		resp.Destinations = []settings.Destination{}
	}
	if s.Pipeline != nil {
		resp.PipelineState = s.Pipeline.State().String()
	}
	if s.Seen != nil {
		resp.SeenCount = s.Seen.Len()
	}
	return resp
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

// handleSet replaces the whole filter. A destination missing from the
// catalog leaves dispatch unconfigured.
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if !s.Settings.Ready() {
		writeError(w, http.StatusServiceUnavailable, "notifier is not ready")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	filter := settings.FilterFromForm(r.PostForm)
	if filter.Configured() && !s.Settings.HasDestination(filter.Destination) {
		s.log.Warn().Str("destination", filter.Destination).Msg("Unknown destination, dispatch left unset")
		filter.Destination = ""
	}

	stored := s.Settings.Replace(filter)
	s.log.Info().
		Int("min", stored.MinPrice).
		Int("max", stored.MaxPrice).
		Str("date", stored.DateBucket).
		Str("destination", stored.Destination).
		Msg("Filter replaced")

	if wantsHTML(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.DispatchLog.Entries())
}

func (s *Server) handlePairing(w http.ResponseWriter, r *http.Request) {
	if s.Pairing == nil || s.Settings.Ready() {
		writeError(w, http.StatusNotFound, "no pairing pending")
		return
	}

	code, err := s.Pairing.PairingCode(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read pairing code")
		writeError(w, http.StatusBadGateway, "pairing code unavailable")
		return
	}
	if code == "" {
		writeError(w, http.StatusNotFound, "pairing code not generated yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// recent returns up to n dispatch entries, most recent first
func recent(log *dispatchlog.Log, n int) []dispatchlog.Entry {
	entries := log.Entries()
	return entries[:min(n, len(entries))]
}
