package web

import (
	"net/http"

	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/web/templates"
)

// handleDashboard renders a card per table with its snapshot size.
// A table whose source is down shows the mapped error on its card.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats := s.service.Stats(r.Context())

	byKey := make(map[string]core.TableStats, len(stats))
	for _, st := range stats {
		byKey[st.Info.Key] = st
	}

	var groups []templates.TableGroup
	for _, group := range core.Groups() {
		defs := core.ByGroup(group)
		cards := make([]templates.TableCardData, len(defs))
		for i, def := range defs {
			st := byKey[def.Info.Key]
			cards[i] = templates.TableCardData{Info: def.Info, Records: st.Records}
			if st.Err != nil {
				logging.FromContext(r.Context()).Warn("dashboard stats", "table", def.Info.Key, "error", st.Err)
				cards[i].Err = core.MapError(st.Err).Message
			}
		}
		groups = append(groups, templates.TableGroup{Name: group, Tables: cards})
	}

	render(w, r, http.StatusOK, templates.Dashboard(groups))
}

// handleListEntities returns every registered table definition.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListTables())
}

// handleCuratePage renders the curation page for the visitor's session.
// ?refresh=1 refetches the snapshot.
func (s *Server) handleCuratePage(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(entityParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	res, err := s.service.View(r.Context(), sessionID(r), def.Info.Key, r.URL.Query().Has("refresh"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	render(w, r, http.StatusOK, templates.CurateView(curateParams(def, res)))
}

// handleCurateGet returns the curated result without changing criteria.
func (s *Server) handleCurateGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.View(r.Context(), sessionID(r), entityParam(r), r.URL.Query().Has("refresh"))
	s.respondCurated(w, r, res, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	res, err := s.service.SetSearch(r.Context(), sessionID(r), entityParam(r), in["search"])
	s.respondCurated(w, r, res, err)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	res, err := s.service.SetCategory(r.Context(), sessionID(r), entityParam(r), in["field"], in["value"])
	s.respondCurated(w, r, res, err)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	res, err := s.service.SetRange(r.Context(), sessionID(r), entityParam(r), in["field"], in["min"], in["max"])
	s.respondCurated(w, r, res, err)
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ToggleSort(r.Context(), sessionID(r), entityParam(r), fieldParam(r))
	s.respondCurated(w, r, res, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.ResetFilters(r.Context(), sessionID(r), entityParam(r))
	s.respondCurated(w, r, res, err)
}

// handleExport downloads the session's curated view as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sink := &responseSink{w: w}
	filename, err := s.service.Export(r.Context(), sessionID(r), entityParam(r), sink)
	if err != nil {
		s.respondExportError(w, r, sink, err)
		return
	}
	logging.FromContext(r.Context()).Info("exported", "table", entityParam(r), "filename", filename)
}

// curatedResponse is the JSON body for curation endpoints.
type curatedResponse struct {
	core.Result
	Error *ErrorResponse `json:"error,omitempty"`
}

// respondCurated answers a curation request. Partial swaps get the table
// fragment, browser forms are redirected back to the page and everything
// else gets JSON. An unavailable source is 503 for JSON; HTML shows it
// inline on a 200 so the controls stay usable.
func (s *Server) respondCurated(w http.ResponseWriter, r *http.Request, res core.Result, err error) {
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	def, err := core.Lookup(res.Table)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	switch {
	case isHTMX(r):
		render(w, r, http.StatusOK, templates.CuratePartial(curateParams(def, res)))
	case wantsJSON(r):
		status := http.StatusOK
		body := curatedResponse{Result: res}
		if res.Unavailable() {
			status = http.StatusServiceUnavailable
			er := newErrorResponse(res.Err)
			body.Error = &er
		}
		writeJSON(w, status, body)
	default:
		http.Redirect(w, r, "/curate/"+def.Info.Key, http.StatusSeeOther)
	}
}
