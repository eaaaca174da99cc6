package control

import (
	"fmt"
	"html/template"
	"net/http"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"sjsage522/listingwatcher/helpers"
	"sjsage522/listingwatcher/services/dispatchlog"
	"sjsage522/listingwatcher/services/settings"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"bucketLabel": bucketLabel,
}).Parse(`<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>listingwatcher</title></head>
<body>
{{if not .Ready}}
  <h3>Ожидание подключения мессенджера</h3>
  {{if .PairingCode}}<p>Код для сопряжения:</p><pre>{{.PairingCode}}</pre>{{else}}<p>Код ещё не сгенерирован</p>{{end}}
{{else}}
  <h3>Фильтр объявлений</h3>
  <form method="POST" action="/set">
    <label>Мин. цена <input name="min" type="number" min="0" value="{{.Filter.MinPrice}}"></label><br>
    <label>Макс. цена <input name="max" type="number" min="0" value="{{.Filter.MaxPrice}}"></label><br>
    <label>Дата <select name="date">
      {{range .DateBuckets}}<option value="{{.}}"{{if eq . $.Filter.DateBucket}} selected{{end}}>{{bucketLabel .}}</option>{{end}}
    </select></label><br>
    <label>Чат <select name="chat">
      {{range .Destinations}}<option value="{{.ID}}"{{if eq .ID $.Filter.Destination}} selected{{end}}>{{.Name}}</option>{{end}}
    </select></label><br>
    <button type="submit">Сохранить</button>
  </form>
  <h3>Отправлено ({{.Dispatched}})</h3>
  <ul>
    {{range .Recent}}<li>{{.DispatchedAt.Format "02.01 15:04"}} <a href="{{.Listing.URL}}">{{.Listing.Title}}</a> {{.Listing.Price}} ₽</li>{{end}}
  </ul>
  <p><a href="/chart">График цен</a></p>
{{end}}
</body>
</html>`))

type indexPage struct {
	StateResponse
	PairingCode string
	Recent      []dispatchlog.Entry
}

func bucketLabel(bucket string) string {
	if bucket == settings.DateAny {
		return "любая"
	}
	return bucket
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		StateResponse: s.state(),
		Recent:        recent(s.DispatchLog, 10),
	}
	if !page.Ready && s.Pairing != nil {
		code, err := s.Pairing.PairingCode(r.Context())
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to read pairing code")
		}
		page.PairingCode = code
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		s.log.Error().Err(err).Msg("Failed to render index")
	}
}

// handleChart renders the prices of the dispatch history, oldest first
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	entries := s.DispatchLog.Entries()
	slices.Reverse(entries)

	xAxis := make([]string, 0, len(entries))
	prices := make([]opts.BarData, 0, len(entries))
	for _, e := range entries {
		xAxis = append(xAxis, fmt.Sprintf("%s %s", e.DispatchedAt.Format("02.01 15:04"), helpers.Truncate(e.Listing.Title, 24)))
		prices = append(prices, opts.BarData{Name: e.Listing.URL, Value: e.Listing.Price})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Dispatched listings", Subtitle: "price, ₽"}),
	)
	bar.SetXAxis(xAxis).AddSeries("Price", prices)

	if err := bar.Render(w); err != nil {
		s.log.Error().Err(err).Msg("Failed to render chart")
	}
}
