// Package qr builds and parses event check-in QR codes.
//
// A code carries a JSON payload identifying the event and a check-in link.
// Scanners post the decoded text back to the attendance endpoint.
package qr

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/JonMunkholm/rollcall/internal/core"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 400

// Payload is the JSON encoded in a check-in QR code.
type Payload struct {
	EventID    string `json:"eventId"`
	EventName  string `json:"eventName"`
	Date       string `json:"date"`
	Location   string `json:"location"`
	CheckInURL string `json:"checkInUrl"`
}

// NewPayload describes e with a check-in link under baseURL.
func NewPayload(e core.Event, baseURL string) Payload {
	return Payload{
		EventID:    e.ID.String(),
		EventName:  e.Title,
		Date:       e.StartTime.Format(core.DateLayout),
		Location:   e.Location,
		CheckInURL: CheckInURL(baseURL, e.ID),
	}
}

// CheckInURL returns "{baseURL}/checkin/{id}".
func CheckInURL(baseURL string, id uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/checkin/" + id.String()
}

// Encode renders p as a PNG QR code of size pixels.
func Encode(p Payload, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Decode parses scanned QR text. The event ID must be a UUID.
func Decode(text string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", core.ErrInvalidPayload, err)
	}
	if _, err := uuid.Parse(p.EventID); err != nil {
		return Payload{}, fmt.Errorf("%w: event id %q", core.ErrInvalidPayload, p.EventID)
	}
	return p, nil
}

var (
	whitespace  = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`[/\\"]`)
)

// Filename suggests "<Event-Name>-QR.png".
func Filename(eventName string) string {
	name := unsafeChars.ReplaceAllString(strings.TrimSpace(eventName), "")
	name = whitespace.ReplaceAllString(name, "-")
	if name == "" {
		name = "event"
	}
	return name + "-QR.png"
}
