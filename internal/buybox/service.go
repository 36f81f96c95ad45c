package buybox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/pkg/db/models"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/geo"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/metrics"
)

// Service ranks competing merchant offers for a product listing.
type Service interface {
	SelectWinner(ctx context.Context, productID uuid.UUID, buyer *geo.LatLng) (*Result, error)
}

type service struct {
	repo    Repository
	engine  *Engine
	logger  *logger.Logger
	metrics *metrics.MarketplaceMetrics
}

// Params carries the service dependencies.
type Params struct {
	Repo    Repository
	Engine  *Engine
	Logger  *logger.Logger
	Metrics *metrics.MarketplaceMetrics
}

// NewService builds a buy box service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("buybox repository required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("buybox engine required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		engine:  params.Engine,
		logger:  params.Logger,
		metrics: params.Metrics,
	}, nil
}

// SelectWinner gathers every merchant offering the same listing as the given
// product and ranks them. Offers from merchants that no longer exist are
// skipped rather than failing the whole ranking.
func (s *service) SelectWinner(ctx context.Context, productID uuid.UUID, buyer *geo.LatLng) (*Result, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	listings, err := s.repo.FindOffersByTitle(ctx, product.Title)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load competing offers")
	}

	merchantIDs := make([]uuid.UUID, 0, len(listings))
	for _, listing := range listings {
		merchantIDs = append(merchantIDs, listing.MerchantID)
	}
	merchants, err := s.repo.FindMerchants(ctx, merchantIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchants")
	}
	merchantsByID := make(map[uuid.UUID]int, len(merchants))
	for i, merchant := range merchants {
		merchantsByID[merchant.ID] = i
	}

	offers := make([]Offer, 0, len(listings))
	for _, listing := range listings {
		idx, ok := merchantsByID[listing.MerchantID]
		if !ok {
			s.logger.Warn(ctx, fmt.Sprintf("skipping offer %s with missing merchant", listing.ID))
			continue
		}
		merchant := merchants[idx]
		offers = append(offers, Offer{
			ProductID:    listing.ID,
			Title:        listing.Title,
			MerchantID:   merchant.ID,
			MerchantName: merchant.ShopName,
			Price:        listing.Price,
			Stock:        listing.Stock,
			DeliveryDays: listing.DeliveryDays,
			Rating:       merchant.Rating,
			Location:     offerLocation(listing, merchant),
		})
	}

	result, err := s.engine.Rank(offers, buyer)
	if err != nil {
		return nil, err
	}
	s.metrics.IncBuyBoxSelection()
	return result, nil
}

// offerLocation prefers the listing's own coordinates and falls back to the
// merchant profile.
func offerLocation(listing models.Product, merchant models.Merchant) *geo.LatLng {
	if listing.Lat != nil && listing.Lng != nil {
		return &geo.LatLng{Lat: *listing.Lat, Lng: *listing.Lng}
	}
	if merchant.Lat != nil && merchant.Lng != nil {
		return &geo.LatLng{Lat: *merchant.Lat, Lng: *merchant.Lng}
	}
	return nil
}
