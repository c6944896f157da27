package server

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/brojonat/ledgerlens/service/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

// TemplateRenderer holds parsed HTML templates
type TemplateRenderer struct {
	templates *template.Template
	logger    *slog.Logger
}

var templateFuncs = template.FuncMap{
	"truncate":  view.Truncate,
	"isoTime":   formatISO,
	"localTime": formatDisplayTime,
}

func formatDisplayTime(ts int64) string {
	if ts <= 0 {
		return contract.NotAvailable
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// NewTemplateRenderer creates a new template renderer from embedded files
func NewTemplateRenderer(logger *slog.Logger) (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &TemplateRenderer{
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Render renders a template with the given data
func (tr *TemplateRenderer) Render(w http.ResponseWriter, name string, data interface{}) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tr.templates.ExecuteTemplate(w, name, data)
}

// RenderStatus renders a template with a non-200 status code.
func (tr *TemplateRenderer) RenderStatus(w http.ResponseWriter, status int, name string, data interface{}) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tr.templates.ExecuteTemplate(w, name, data)
}

// explorerPage is the data behind index.html.
type explorerPage struct {
	Query        string
	Error        string
	Snapshot     *contract.Snapshot
	Page         view.Page
	Filter       view.Filter
	Charts       pageCharts
	MarketSymbol string
}

// handleExplorerPage serves the explorer. With ?address= it renders the
// lookup result; ?page= selects the table page.
func handleExplorerPage(renderer *TemplateRenderer, lookups *lookupService, pageSize int, marketSymbol string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := explorerPage{
			Query:        q.Get("address"),
			Filter:       view.ParseFilter(q.Get("type")),
			MarketSymbol: marketSymbol,
		}
		status := http.StatusOK

		address, err := view.NormalizeQuery(data.Query)
		switch {
		case errors.Is(err, view.ErrEmptyQuery):
			// landing page
		case validateAddress(address) != nil:
			data.Error = msgInvalidAddress
			status = http.StatusBadRequest
		default:
			data.Query = address
			snap, err := lookups.Lookup(r.Context(), address)
			if err != nil {
				msg, code := lookupError(err)
				if code >= 500 {
					renderer.logger.Error("contract lookup failed", "address", address, "error", err)
				}
				data.Error = msg
				status = code
				break
			}
			page, _ := strconv.Atoi(q.Get("page"))
			data.Snapshot = snap
			data.Page = view.Paginate(snap.Transactions, page, pageSize)
			data.Charts = buildPageCharts(snap)
		}

		if err := renderer.RenderStatus(w, status, "index.html", data); err != nil {
			renderer.logger.Error("failed to render template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	})
}

const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32"><circle cx="14" cy="14" r="9" fill="none" stroke="#4f46e5" stroke-width="3"/><path d="M21 21l7 7" stroke="#4f46e5" stroke-width="3" stroke-linecap="round"/></svg>`

// handleFavicon serves an inline SVG icon.
func handleFavicon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(faviconSVG))
	}
}
