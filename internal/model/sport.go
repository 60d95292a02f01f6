package model

import "time"

// Sport is an Olympic discipline shown in the catalog.  Sports are
// reference data: this service never creates or edits them.
//
// Fields:
//  ID               – primary key identifier.
//  Slug             – unique URL-friendly key (e.g. "athletisme").
//  Name             – display name.
//  ImageURL         – path of the illustration used by the front end.
//  Description      – short description.
//  Venue            – where the competition takes place.
//  CompetitionDates – free-form date range shown to visitors.
//  History          – optional longer text.
type Sport struct {
	ID               uint64  `db:"id" json:"id"`                               // sports.id
	Slug             string  `db:"slug" json:"slug"`                           // sports.slug
	Name             string  `db:"name" json:"name"`                           // sports.name
	ImageURL         string  `db:"image_url" json:"image_url"`                 // sports.image_url
	Description      string  `db:"description" json:"description"`             // sports.description
	Venue            string  `db:"venue" json:"venue"`                         // sports.venue
	CompetitionDates string  `db:"competition_dates" json:"competition_dates"` // sports.competition_dates
	History          *string `db:"history" json:"history,omitempty"`           // sports.history (nullable)
}

// Event is a scheduled session of a sport ("épreuve").  AvailableSeats is
// the only mutable column in the catalog: checkout decrements it and
// nothing in this service ever increases it.  It never drops below zero.
type Event struct {
	ID             uint64    `db:"id" json:"id"`                           // events.id
	SportID        uint64    `db:"sport_id" json:"sport_id"`               // events.sport_id
	Name           string    `db:"name" json:"name"`                       // events.name
	StartsAt       time.Time `db:"starts_at" json:"starts_at"`             // events.starts_at
	AvailableSeats int       `db:"available_seats" json:"available_seats"` // events.available_seats
}

// SportDetail is a sport together with its events, as returned by the
// sport detail endpoint.
type SportDetail struct {
	Sport
	Events []Event `json:"events"`
}
