package domain

import (
	"fmt"
	"time"
)

// Event is a cluster of articles describing one real-world hazard occurrence.
// Articles reference their event; the event's article list is always
// reconstructed by query.
type Event struct {
	ID         int64  `json:"id"`
	Key        string `json:"key"`
	Title      string `json:"title"`
	HazardType string `json:"disaster_type"`
	Province   string `json:"province"`
	Stage      Stage  `json:"stage"`

	StartedAt     time.Time `json:"started_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	Deaths           *int     `json:"deaths"`
	Missing          *int     `json:"missing"`
	Injured          *int     `json:"injured"`
	DamageBillionVND *float64 `json:"damage_billion_vnd"`

	Confidence        float64  `json:"confidence"`
	SourcesCount      int      `json:"sources_count"`
	Lat               *float64 `json:"lat"`
	Lon               *float64 `json:"lon"`
	RiskLevel         int      `json:"risk_level"`
	NeedsVerification bool     `json:"needs_verification"`
	ImageURL          string   `json:"image_url,omitempty"`
	Details           Impact   `json:"details"`

	CreatedAt time.Time `json:"created_at"`
}

// PubliclyVisible reports whether unauthenticated readers may see the event.
func (e *Event) PubliclyVisible() bool {
	return e.Confidence >= 0.8 || (!e.NeedsVerification && e.SourcesCount >= 2)
}

// EventKey builds the clustering key for a new event.
func EventKey(hazardType, province string, at time.Time) string {
	return fmt.Sprintf("%s|%s|%s", hazardType, province, at.UTC().Format("200601021504"))
}

// Notice is the realtime envelope pushed when a new event is created.
type Notice struct {
	Type         string    `json:"type"`
	EventID      int64     `json:"event_id"`
	Title        string    `json:"title"`
	DisasterType string    `json:"disaster_type"`
	Province     string    `json:"province"`
	StartedAt    time.Time `json:"started_at"`
}

// NewEventNotice builds the envelope announcing a newly created event.
func NewEventNotice(e *Event) Notice {
	return Notice{
		Type:         "new_event",
		EventID:      e.ID,
		Title:        e.Title,
		DisasterType: e.HazardType,
		Province:     e.Province,
		StartedAt:    e.StartedAt,
	}
}

// EventChange is an event written by an ingestion cycle.
type EventChange struct {
	Event   Event `json:"event"`
	Created bool  `json:"created"`
}
