package httptransport

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vifm-portal/internal/guard"
	profileModel "vifm-portal/internal/profile/models"
)

// pageTemplate is deliberately minimal scaffolding: the guard and its
// denial notice are the point, not the markup.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
{{if .Notice}}<div class="notice">{{.Notice}}</div>{{end}}
<h1>{{.Title}}</h1>
{{if .User}}<p>Signed in as {{.User}}</p>{{end}}
</body>
</html>`))

type pageData struct {
	Title  string
	Notice string
	User   string
}

// Pages serves the portal's server-rendered pages. Protected pages only
// reach their handler after the guard allows; login and the main menu
// display any pending denial notice.
type Pages struct {
	guard   *guard.Controller
	notices *guard.Notices
	logger  *slog.Logger
}

func NewPages(g *guard.Controller, notices *guard.Notices, logger *slog.Logger) *Pages {
	return &Pages{guard: g, notices: notices, logger: logger}
}

// Register registers the page routes with the chi router. Every route goes
// through the guard; the public allow-list short-circuits inside it.
func (p *Pages) Register(r chi.Router) {
	r.With(p.guard.Protect(profileModel.RoleNone)).Get("/", p.page("VIFM Portal", false))
	r.With(p.guard.Protect(profileModel.RoleNone)).Get("/index.html", p.page("VIFM Portal", false))
	r.With(p.guard.Protect(profileModel.RoleNone)).Get("/login.html", p.page("Sign In", true))
	r.With(p.guard.Protect(profileModel.RoleNone)).Get("/register.html", p.page("Register", false))
	r.With(p.guard.Protect(profileModel.RoleNone)).Get("/vifm-main-menu.html", p.page("Main Menu", true))
	r.With(p.guard.Protect(profileModel.RoleNone)).Get("/opportunities.html", p.page("Opportunities", false))
	r.With(p.guard.Protect(profileModel.RoleBD)).Get("/pipeline.html", p.page("Pipeline", false))
	r.With(p.guard.Protect(profileModel.RoleAdmin)).Get("/admin.html", p.page("Administration", false))
}

// page renders one portal page. showNotice pages consume the pending
// denial reason so it is displayed exactly once.
func (p *Pages) page(title string, showNotice bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{Title: title}
		if showNotice {
			data.Notice = p.notices.Take(r.Context())
		}
		if prof := guard.ProfileFromContext(r.Context()); prof != nil {
			data.User = prof.DisplayName
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			p.logger.ErrorContext(r.Context(), "failed to render page", "error", err, "page", title)
		}
	}
}
