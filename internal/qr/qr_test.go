package qr

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/rollcall/internal/core"
)

func testEvent() core.Event {
	return core.Event{
		ID:        uuid.MustParse("0b5d6a8e-3f0e-4c1b-9a55-2f1f8d3c7e01"),
		Title:     "Beach Cleanup",
		Location:  "Ocean Beach",
		StartTime: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewPayload(t *testing.T) {
	p := NewPayload(testEvent(), "https://roster.example.org/")
	want := Payload{
		EventID:    "0b5d6a8e-3f0e-4c1b-9a55-2f1f8d3c7e01",
		EventName:  "Beach Cleanup",
		Date:       "2025-06-01",
		Location:   "Ocean Beach",
		CheckInURL: "https://roster.example.org/checkin/0b5d6a8e-3f0e-4c1b-9a55-2f1f8d3c7e01",
	}
	if p != want {
		t.Errorf("NewPayload() = %+v, want %+v", p, want)
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode(NewPayload(testEvent(), "http://localhost:8080"), 256)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Errorf("size = %v, want 256x256", b)
	}
}

func TestDecode(t *testing.T) {
	p, err := Decode(`{"eventId":"0b5d6a8e-3f0e-4c1b-9a55-2f1f8d3c7e01","eventName":"Beach Cleanup"}`)
	if err != nil {
		t.Fatal(err)
	}
	if p.EventName != "Beach Cleanup" {
		t.Errorf("Decode() = %+v", p)
	}

	for _, text := range []string{"", "not json", `{"eventId":"event-123"}`, `{"eventName":"x"}`} {
		if _, err := Decode(text); !errors.Is(err, core.ErrInvalidPayload) {
			t.Errorf("Decode(%q) err = %v, want ErrInvalidPayload", text, err)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Beach Cleanup":         "Beach-Cleanup-QR.png",
		"  Food   Bank\tDrive ": "Food-Bank-Drive-QR.png",
		`Say "Hi"/Bye`:          "Say-HiBye-QR.png",
		"":                      "event-QR.png",
	}
	for in, want := range tests {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}
