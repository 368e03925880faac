package web

// handlers_common.go holds helpers shared by the page and API handlers.

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/core/tables"
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/web/templates"
)

// MaxBodySize caps JSON and form request bodies.
const MaxBodySize = 1 << 20

// detailPaths links a table's identity column to its detail page.
var detailPaths = map[string]string{
	tables.UsersKey:  "/users/",
	tables.EventsKey: "/events/",
}

// writeJSON encodes v with status. Encoding errors are only logged since
// the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}

// render writes an HTML component with status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render", "path", r.URL.Path, "error", err)
	}
}

// formValues reads a flat set of string inputs from a JSON object or an
// urlencoded/multipart form.
func formValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	out := make(map[string]string)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: decode body: %w", errBadRequest, err)
		}
		for k, v := range raw {
			switch val := v.(type) {
			case nil:
			case string:
				out[k] = val
			default:
				out[k] = fmt.Sprint(val)
			}
		}
		return out, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: parse form: %w", errBadRequest, err)
	}
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return out, nil
}

// buildColumnMeta describes the table headers for the current sort.
func buildColumnMeta(def core.TableDefinition, sort core.SortCriteria) []templates.ColumnMeta {
	meta := make([]templates.ColumnMeta, 0, len(def.Info.Columns))
	for _, name := range def.Info.Columns {
		spec, _ := def.Field(name)
		cm := templates.ColumnMeta{
			Name:     name,
			Label:    spec.HeaderLabel(),
			Type:     spec.Type.String(),
			Sortable: spec.Sortable,
		}
		if sort.Key == name {
			cm.Active = true
			cm.Arrow = sort.Direction.Arrow()
		}
		meta = append(meta, cm)
	}
	return meta
}

// curateParams assembles the view model for a curated result.
func curateParams(def core.TableDefinition, res core.Result) templates.CurateParams {
	params := templates.CurateParams{
		Info:       def.Info,
		Fields:     def.FieldSpecs,
		Columns:    buildColumnMeta(def, res.Sort),
		Rows:       make([][]string, len(res.Records)),
		RowIDs:     make([]string, len(res.Records)),
		DetailPath: detailPaths[def.Info.Key],
		Result:     res,
	}

	for i, rec := range res.Records {
		row := make([]string, len(def.Info.Columns))
		for j, name := range def.Info.Columns {
			spec, _ := def.Field(name)
			row[j] = spec.Format(rec[name])
		}
		params.Rows[i] = row
		params.RowIDs[i] = core.StringValue(rec[def.Info.IdentityField])
	}

	if res.Err != nil {
		msg := core.MapError(res.Err)
		params.Error = &templates.ErrorInfo{Message: msg.Message, Action: msg.Action, Code: msg.Code}
	}
	return params
}

// responseSink is the download sink for HTTP: Save sets the attachment
// headers and writes the file as the response body.
type responseSink struct {
	w           http.ResponseWriter
	contentType string
	wrote       bool
}

func (s *responseSink) Save(data []byte, filename string) error {
	ct := s.contentType
	if ct == "" {
		ct = "text/csv; charset=utf-8"
	}
	s.w.Header().Set("Content-Type", ct)
	s.w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	s.wrote = true
	_, err := s.w.Write(data)
	return err
}

// respondExportError reports err unless the sink already sent the status
// line, in which case it can only be logged.
func (s *Server) respondExportError(w http.ResponseWriter, r *http.Request, sink *responseSink, err error) {
	if sink.wrote {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
		return
	}
	s.respondError(w, r, err, 0)
}
