package rest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/storefront/internal/service"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"home", "category", "product", "product_not_found", "cart", "cart_added", "orders", "thanks", "login",
}

// orderTimeLayouts are tried in order when formatting an order's creation time.
var orderTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

type renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

func newRenderer(logger *slog.Logger) (*renderer, error) {
	printer := message.NewPrinter(language.Japanese)
	funcs := template.FuncMap{
		"yen": func(amount int64) string {
			return printer.Sprintf("¥%d", amount)
		},
		"quantityOptions": service.QuantityOptions,
		"orderTime":       formatOrderTime,
		"lineTotal": func(price int64, quantity int) int64 {
			return price * int64(quantity)
		},
	}

	r := &renderer{templates: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// render executes the page into a buffer first so a template error never leaves
// a half-written page behind.
func (r *renderer) render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.ErrorContext(req.Context(), "Unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.ErrorContext(req.Context(), "Failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func formatOrderTime(raw string) string {
	for _, layout := range orderTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006/01/02 15:04")
		}
	}
	return raw
}
