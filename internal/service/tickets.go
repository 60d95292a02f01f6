package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // Europe/Paris must resolve on minimal images

	"github.com/shopspring/decimal"

	"github.com/iliyamo/olympic-ticketing/internal/model"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
)

// Display defaults used when a catalog row referenced by a ticket has since
// disappeared.
const (
	fallbackEventName = "Événement Paris 2024"
	fallbackVenue     = "Paris"
	fallbackOfferName = "Billet"
)

var displayTZ = loadDisplayTZ()

func loadDisplayTZ() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		return time.UTC
	}
	return loc
}

// TicketDocument is the flat record a DocumentRenderer lays out.
type TicketDocument struct {
	PurchaseKey string
	EventName   string
	SportName   string
	Venue       string
	Date        string // dd/mm/yyyy, Paris time
	Time        string // HH:MM, Paris time
	OfferName   string
	Quantity    int
	Seats       int
	TotalPrice  decimal.Decimal
	HolderName  string
	QRPayload   string // encoded into the QR code verbatim
}

// Document is a rendered ticket.
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// DocumentRenderer produces a printable ticket.
type DocumentRenderer interface {
	Render(ctx context.Context, doc TicketDocument) (Document, error)
}

// Viewer identifies who is asking for a ticket document.
type Viewer struct {
	UserID uint64
	Role   string
}

// TicketService lists purchased tickets and produces their documents.
type TicketService struct {
	tickets  *repository.TicketRepo
	events   *repository.EventRepo
	sports   *repository.SportRepo
	offers   *repository.OfferRepo
	users    *repository.UserRepo
	renderer DocumentRenderer
}

func NewTicketService(tickets *repository.TicketRepo, events *repository.EventRepo, sports *repository.SportRepo,
	offers *repository.OfferRepo, users *repository.UserRepo, renderer DocumentRenderer) *TicketService {
	return &TicketService{tickets: tickets, events: events, sports: sports, offers: offers, users: users, renderer: renderer}
}

// List returns one row per (ticket, event) for the user, newest first.
func (s *TicketService) List(ctx context.Context, userID uint64) ([]model.TicketDetail, error) {
	details, err := s.tickets.ListDetails(ctx, userID)
	if err != nil {
		return nil, storage("list tickets", err)
	}
	return details, nil
}

// Download renders the document of a ticket.  Only the owner or an admin
// may download it.  The QR code carries the payload stored at purchase
// time, so repeated downloads encode identical data.
func (s *TicketService) Download(ctx context.Context, ticketID uint64, viewer Viewer) (*Document, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("ticket", ticketID)
	}
	if err != nil {
		return nil, storage("load ticket", err)
	}
	if viewer.Role != model.RoleAdmin && viewer.UserID != ticket.UserID {
		return nil, ErrForbidden
	}

	doc, err := s.assemble(ctx, ticket)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("render ticket %d: %w", ticket.ID, err)
	}
	out.Filename = DocumentFilename(ticket.PurchaseKey)
	return &out, nil
}

// DocumentFilename is the download name of a ticket document.
func DocumentFilename(purchaseKey string) string {
	return "billet_paris2024_" + purchaseKey + ".pdf"
}

func (s *TicketService) assemble(ctx context.Context, t *model.Ticket) (TicketDocument, error) {
	doc := TicketDocument{
		PurchaseKey: t.PurchaseKey,
		EventName:   fallbackEventName,
		Venue:       fallbackVenue,
		OfferName:   fallbackOfferName,
		Quantity:    t.Quantity,
		TotalPrice:  t.TotalPrice,
		HolderName:  model.User{}.DisplayName(),
		QRPayload:   t.QRPayload,
	}
	when := t.PurchasedAt

	links, err := s.tickets.ListEvents(ctx, t.ID)
	if err != nil {
		return doc, storage("load ticket events", err)
	}
	if len(links) > 0 {
		doc.Seats = links[0].Seats
		ev, err := s.events.GetByID(ctx, links[0].EventID)
		switch {
		case err == nil:
			doc.EventName = ev.Name
			when = ev.StartsAt
			if sp, err := s.sports.GetByID(ctx, ev.SportID); err == nil {
				doc.SportName = sp.Name
				doc.Venue = sp.Venue
			} else if !errors.Is(err, repository.ErrNotFound) {
				return doc, storage("load sport", err)
			}
		case !errors.Is(err, repository.ErrNotFound):
			return doc, storage("load event", err)
		}
	}

	if of, err := s.offers.GetByID(ctx, t.OfferID); err == nil {
		doc.OfferName = of.Name
	} else if !errors.Is(err, repository.ErrNotFound) {
		return doc, storage("load offer", err)
	}
	if u, err := s.users.GetByID(ctx, t.UserID); err == nil {
		doc.HolderName = u.DisplayName()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return doc, storage("load user", err)
	}

	local := when.In(displayTZ)
	doc.Date = local.Format("02/01/2006")
	doc.Time = local.Format("15:04")
	return doc, nil
}
