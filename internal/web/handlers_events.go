package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/qr"
	"github.com/JonMunkholm/rollcall/internal/web/templates"
)

// eventResponse is the JSON view of an event.
type eventResponse struct {
	core.Event
	Status     string `json:"status"`
	CheckInURL string `json:"check_in_url"`
}

func (s *Server) toEventResponse(e core.Event) eventResponse {
	return eventResponse{
		Event:      e,
		Status:     e.Status(s.service.Now()),
		CheckInURL: qr.CheckInURL(s.cfg.Checkin.BaseURL, e.ID),
	}
}

func (s *Server) handleNewEventPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.NewEventForm(templates.NewEventParams{}))
}

// handleCreateEvent creates an event from JSON or the new-event form.
// Browser submissions are redirected to the event page, or get the form
// back with field errors.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	input := core.EventInput{
		Title:     in["title"],
		Location:  in["location"],
		StartTime: in["start_time"],
		EndTime:   in["end_time"],
	}

	e, err := s.service.CreateEvent(r.Context(), input)
	if err != nil {
		if !errors.Is(err, core.ErrInvalidEvent) {
			s.respondError(w, r, err, 0)
			return
		}
		_, res := core.ValidateEvent(input)
		logging.FromContext(r.Context()).Warn("event rejected", "errors", len(res.Errors))
		if wantsJSON(r) {
			body := newErrorResponse(err)
			body.Fields = res.Errors
			writeJSON(w, http.StatusUnprocessableEntity, body)
			return
		}
		render(w, r, http.StatusUnprocessableEntity, templates.NewEventForm(templates.NewEventParams{Input: input, Errors: res.Errors}))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, s.toEventResponse(e))
		return
	}
	http.Redirect(w, r, "/events/"+e.ID.String(), http.StatusSeeOther)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetEvent(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, s.toEventResponse(e))
}

// handleEventPage renders an event with its QR code and attendance figures.
func (s *Server) handleEventPage(w http.ResponseWriter, r *http.Request) {
	a, err := s.service.EventAnalytics(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	render(w, r, http.StatusOK, templates.EventDetail(templates.EventDetailParams{
		Event:      a.Event,
		Status:     a.Event.Status(s.service.Now()),
		Analytics:  a,
		CheckInURL: qr.CheckInURL(s.cfg.Checkin.BaseURL, a.Event.ID),
	}))
}

// handleEventQR serves the check-in QR code as PNG; ?download=1 makes it
// an attachment named after the event.
func (s *Server) handleEventQR(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetEvent(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	png, err := qr.Encode(qr.NewPayload(e, s.cfg.Checkin.BaseURL), s.cfg.Checkin.QRSize)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("download") == "1" {
		sink := &responseSink{w: w, contentType: "image/png"}
		if err := sink.Save(png, qr.Filename(e.Title)); err != nil {
			logging.FromContext(r.Context()).Error("write qr", "error", err)
		}
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(png); err != nil {
		logging.FromContext(r.Context()).Error("write qr", "error", err)
	}
}

// handleEventCheckin records attendance for {user_id} at the event.
func (s *Server) handleEventCheckin(w http.ResponseWriter, r *http.Request) {
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	a, err := s.service.CheckIn(r.Context(), idParam(r), in["user_id"])
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// attendanceRequest is the scanner body. The event comes from eventId or
// from the scanned QR payload, given as its raw text or as the object.
type attendanceRequest struct {
	MemberID string          `json:"memberId"`
	EventID  string          `json:"eventId"`
	Payload  json.RawMessage `json:"payload"`
}

func (req attendanceRequest) eventID() (string, error) {
	if req.EventID != "" || len(req.Payload) == 0 {
		return req.EventID, nil
	}
	text := string(req.Payload)
	var s string
	if err := json.Unmarshal(req.Payload, &s); err == nil {
		text = s
	}
	p, err := qr.Decode(text)
	if err != nil {
		return "", err
	}
	return p.EventID, nil
}

// handleAttendance is the QR scanner endpoint.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: decode attendance: %w", errBadRequest, err), 0)
		return
	}

	eventID, err := req.eventID()
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	a, err := s.service.CheckIn(r.Context(), eventID, req.MemberID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// handleAnalyticsExport downloads the event's Metric/Value CSV.
func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	sink := &responseSink{w: w}
	if _, err := s.service.ExportAnalytics(r.Context(), idParam(r), sink); err != nil {
		s.respondExportError(w, r, sink, err)
	}
}

// handleCheckinPage is where a scanned QR link lands.
func (s *Server) handleCheckinPage(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetEvent(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	render(w, r, http.StatusOK, templates.CheckinPage(templates.CheckinParams{
		Event:    e,
		MemberID: r.URL.Query().Get("member_id"),
	}))
}

// handleCheckinSubmit confirms attendance from the check-in page and shows
// the outcome on the same page.
func (s *Server) handleCheckinSubmit(w http.ResponseWriter, r *http.Request) {
	e, err := s.service.GetEvent(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	params := templates.CheckinParams{Event: e, MemberID: in["member_id"]}
	status := http.StatusOK
	if _, err := s.service.CheckIn(r.Context(), e.ID.String(), params.MemberID); err != nil {
		status = statusFor(err)
		msg := core.MapError(err)
		params.Error = &templates.ErrorInfo{Message: msg.Message, Action: msg.Action, Code: msg.Code}
	} else {
		params.Success = "Attendance confirmed for " + e.Title
	}
	render(w, r, status, templates.CheckinPage(params))
}

// handleCreateMember registers a roster member.
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	in, err := formValues(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	input := core.MemberInput{
		Name:     in["name"],
		Email:    in["email"],
		Role:     in["role"],
		JoinDate: in["join_date"],
	}

	m, err := s.service.CreateMember(r.Context(), input)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMember) && wantsJSON(r) {
			body := newErrorResponse(err)
			_, res := core.ValidateMember(input, s.service.Now())
			body.Fields = res.Errors
			writeJSON(w, http.StatusUnprocessableEntity, body)
			return
		}
		s.respondError(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, m)
		return
	}
	http.Redirect(w, r, "/users/"+m.ID.String(), http.StatusSeeOther)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.GetMemberDetail(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleMemberPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.GetMemberDetail(r.Context(), idParam(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	render(w, r, http.StatusOK, templates.MemberDetail(d))
}
