package ui

import (
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"eyedash/domain/filter"
	"eyedash/domain/resolve"
	"eyedash/domain/table"
	"eyedash/internal/errors"
	"eyedash/internal/pages"
	"eyedash/ports"
)

const sessionCookie = "eyedash_session"

// pageCtx carries everything a page handler needs after the shared
// load/resolve/session steps.
type pageCtx struct {
	page    *pages.Page
	path    string
	full    *table.Table
	mapping resolve.Mapping
	snap    *ports.SessionSnapshot
	state   filter.State
}

// sessionID reads the browser's session cookie, minting a new id (and
// setting the cookie) when absent or malformed.
func (a *App) sessionID(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id
		}
	}
	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// pageContext runs the shared pipeline: resolve the page, load its
// table, resolve columns, and pull the session's filter state.
func (a *App) pageContext(w http.ResponseWriter, r *http.Request) (*pageCtx, error) {
	page, ok := lookupPage(r)
	if !ok {
		return nil, errors.NotFound("unknown dashboard page")
	}
	path := filepath.Join(a.cfg.Data.Dir, page.DataFile)
	full, err := a.store.Load(path)
	if err != nil {
		return &pageCtx{page: page, path: path}, err
	}
	mapping := resolve.Resolve(full, page.Candidates)

	snap, err := a.sessions.Acquire(r.Context(), a.sessionID(w, r))
	if err != nil {
		return nil, err
	}
	state := a.sessions.PageState(snap, page.Key, func() filter.State {
		return filter.DefaultState(full, mapping, page.Filters)
	})

	return &pageCtx{
		page:    page,
		path:    path,
		full:    full,
		mapping: mapping,
		snap:    snap,
		state:   state,
	}, nil
}

// handleIndex redirects to the first dashboard.
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	reg := pages.Registry()
	data := map[string]interface{}{
		"Nav":   a.nav(""),
		"Pages": reg,
	}
	a.renderTemplate(w, "index.html", data)
}

// handleDashboard renders a full dashboard page.
func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, err := a.pageContext(w, r)
	if err != nil {
		a.renderError(w, r, ctx, err)
		return
	}

	res := filter.Apply(ctx.full, ctx.mapping, ctx.page.Filters, ctx.state)
	view := a.buildView(ctx.page, ctx.full, res.Table, ctx.mapping)

	if err := a.sessions.Commit(r.Context(), ctx.snap); err != nil {
		log.Printf("[ui] session commit failed: %v", err)
	}

	a.renderTemplate(w, "dashboard.html", a.dashboardData(ctx, res, view))
}

// buildView calls the page builder with a recovery net so one broken
// column never takes down the whole page.
func (a *App) buildView(page *pages.Page, full, filtered *table.Table, m resolve.Mapping) (view pages.View) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[ui] page %s build panic: %v", page.Key, rec)
			view = pages.View{Sections: []pages.Section{{
				Title:  page.Title,
				Notice: "This dashboard could not be rendered from the current data file.",
			}}}
		}
	}()
	return page.Build(full, filtered, m)
}

// handleFilters applies a submitted filter form and redirects back.
func (a *App) handleFilters(w http.ResponseWriter, r *http.Request) {
	ctx, err := a.pageContext(w, r)
	if err != nil {
		a.renderError(w, r, ctx, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	state := ctx.state.Clone()
	for _, spec := range ctx.page.Filters {
		key := spec.StateKey()
		sel := filter.Selection{}
		switch spec.Kind {
		case filter.KindDate:
			start, errS := time.Parse("2006-01-02", r.FormValue(key+"_start"))
			end, errE := time.Parse("2006-01-02", r.FormValue(key+"_end"))
			if errS == nil && errE == nil {
				sel.Dates = &filter.DateRange{Start: start, End: end}
			} else if prev, ok := state[key]; ok {
				sel.Dates = prev.Dates
			}
		case filter.KindMultiselect:
			sel.Categories = r.Form[key]
		}
		state[key] = sel
	}

	a.sessions.SetPageState(ctx.snap, ctx.page.Key, state)
	if err := a.sessions.Commit(r.Context(), ctx.snap); err != nil {
		log.Printf("[ui] session commit failed: %v", err)
	}
	http.Redirect(w, r, "/dash/"+ctx.page.Key, http.StatusSeeOther)
}

// handleClear resets the page's filters to the data-derived defaults.
func (a *App) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx, err := a.pageContext(w, r)
	if err != nil {
		a.renderError(w, r, ctx, err)
		return
	}
	a.sessions.Clear(ctx.snap, ctx.page.Key, func() filter.State {
		return filter.DefaultState(ctx.full, ctx.mapping, ctx.page.Filters)
	})
	if err := a.sessions.Commit(r.Context(), ctx.snap); err != nil {
		log.Printf("[ui] session commit failed: %v", err)
	}
	http.Redirect(w, r, "/dash/"+ctx.page.Key, http.StatusSeeOther)
}

// handleExport streams the filtered subset as CSV.
func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, err := a.pageContext(w, r)
	if err != nil {
		a.renderError(w, r, ctx, err)
		return
	}
	res := filter.Apply(ctx.full, ctx.mapping, ctx.page.Filters, ctx.state)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ctx.page.Key+`_filtered.csv"`)
	if err := res.Table.WriteCSV(w); err != nil {
		log.Printf("[ui] csv export failed: %v", err)
	}
}

// renderError maps pipeline failures onto user-facing pages: a missing
// data file renders the dashboard shell with a notice, everything else
// is a plain HTTP error.
func (a *App) renderError(w http.ResponseWriter, r *http.Request, ctx *pageCtx, err error) {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		http.NotFound(w, r)
	case errors.CodeDataSourceMissing:
		log.Printf("[ui] %v", err)
		data := map[string]interface{}{
			"Nav":        a.nav(ctx.page.Key),
			"Title":      ctx.page.Title,
			"Subtitle":   ctx.page.Subtitle,
			"PageKey":    ctx.page.Key,
			"DataNotice": "Data file " + ctx.page.DataFile + " not found. Upload it to the data directory to activate this dashboard.",
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		a.renderTemplate(w, "dashboard.html", data)
	default:
		log.Printf("[ui] %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// nav lists the registered pages with the active one marked.
func (a *App) nav(activeKey string) []map[string]interface{} {
	var items []map[string]interface{}
	for _, p := range pages.Registry() {
		items = append(items, map[string]interface{}{
			"Key":    p.Key,
			"Title":  p.Title,
			"Active": p.Key == activeKey,
		})
	}
	return items
}
