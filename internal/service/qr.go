package service

import (
	"encoding/json"
	"time"
)

// QRPayloadVersion is bumped whenever QRPayload changes shape.
const QRPayloadVersion = 1

// QRPayload is the record encoded in a ticket's QR code.  It is serialized
// once at checkout and stored verbatim on the ticket.
type QRPayload struct {
	Version     int       `json:"v"`
	PurchaseKey string    `json:"purchase_key"`
	UserID      uint64    `json:"user_id"`
	EventID     uint64    `json:"event_id"`
	Event       string    `json:"event"`
	Date        time.Time `json:"date"`
	Seats       int       `json:"seats"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// Encode returns the canonical JSON form of p.
func (p QRPayload) Encode() (string, error) {
	if p.Version == 0 {
		p.Version = QRPayloadVersion
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeQRPayload parses a stored payload.
func DecodeQRPayload(s string) (QRPayload, error) {
	var p QRPayload
	err := json.Unmarshal([]byte(s), &p)
	return p, err
}
