package service

import (
	"context"
	"errors"

	"github.com/iliyamo/olympic-ticketing/internal/model"
	"github.com/iliyamo/olympic-ticketing/internal/repository"
)

// CatalogService serves the read-only sport, event and offer catalog.
type CatalogService struct {
	sports *repository.SportRepo
	offers *repository.OfferRepo
}

func NewCatalogService(sports *repository.SportRepo, offers *repository.OfferRepo) *CatalogService {
	return &CatalogService{sports: sports, offers: offers}
}

// ListSports returns every sport; an empty catalog yields an empty slice.
func (s *CatalogService) ListSports(ctx context.Context) ([]model.Sport, error) {
	sports, err := s.sports.List(ctx)
	if err != nil {
		return nil, storage("list sports", err)
	}
	return sports, nil
}

// SportBySlug returns a sport with its events in chronological order.
func (s *CatalogService) SportBySlug(ctx context.Context, slug string) (*model.SportDetail, error) {
	sport, err := s.sports.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("sport", slug)
	}
	if err != nil {
		return nil, storage("load sport", err)
	}
	events, err := s.sports.ListEvents(ctx, sport.ID)
	if err != nil {
		return nil, storage("list events", err)
	}
	return &model.SportDetail{Sport: *sport, Events: events}, nil
}

// ListOffers returns the purchasable ticket offers.
func (s *CatalogService) ListOffers(ctx context.Context) ([]model.Offer, error) {
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, storage("list offers", err)
	}
	return offers, nil
}
