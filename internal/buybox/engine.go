package buybox

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/config"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/geo"
)

// neutralDistanceScore is applied when either side has no known location,
// so merchants without coordinates are neither favored nor punished.
const neutralDistanceScore = 50.0

// Offer is one merchant's listing of a product, enriched with the merchant
// attributes the ranking needs.
type Offer struct {
	ProductID    uuid.UUID   `json:"product_id"`
	Title        string      `json:"title"`
	MerchantID   uuid.UUID   `json:"merchant_id"`
	MerchantName string      `json:"merchant_name"`
	Price        int64       `json:"price"`
	Stock        int         `json:"stock"`
	DeliveryDays int         `json:"delivery_days"`
	Rating       float64     `json:"rating"`
	Location     *geo.LatLng `json:"location,omitempty"`
}

// Scores holds the per-component values behind an offer's total.
type Scores struct {
	Stock    float64 `json:"stock_score"`
	Distance float64 `json:"distance_score"`
	Rating   float64 `json:"rating_score"`
	Total    float64 `json:"total_score"`
}

// RankedOffer is an offer with its computed scores.
type RankedOffer struct {
	Offer
	Scores     Scores   `json:"scores"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Winner     bool     `json:"winner"`
}

// Result is a full ranking. Winner is nil when no offer has stock;
// TotalMerchants counts the competing offers that were ranked.
type Result struct {
	Winner         *RankedOffer  `json:"winner"`
	Offers         []RankedOffer `json:"offers"`
	TotalMerchants int           `json:"total_merchants"`
}

// Engine computes Buy Box rankings. It is pure and safe for concurrent use.
type Engine struct {
	cfg config.BuyBoxConfig
}

// NewEngine builds an engine with the given ranking constants.
func NewEngine(cfg config.BuyBoxConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Rank scores every offer and orders them best-first. Offers with zero stock
// are listed but never win. Ties break on price, then merchant id, so the
// ordering is deterministic for identical inputs.
func (e *Engine) Rank(offers []Offer, buyer *geo.LatLng) (*Result, error) {
	if len(offers) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one offer required")
	}

	ranked := make([]RankedOffer, 0, len(offers))
	for _, offer := range offers {
		scores, distKm := e.score(offer, buyer)
		ranked = append(ranked, RankedOffer{Offer: offer, Scores: scores, DistanceKm: distKm})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Scores.Total != b.Scores.Total {
			return a.Scores.Total > b.Scores.Total
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.MerchantID.String() < b.MerchantID.String()
	})

	result := &Result{Offers: ranked, TotalMerchants: len(ranked)}
	for i := range ranked {
		if ranked[i].Stock > 0 {
			ranked[i].Winner = true
			result.Winner = &ranked[i]
			break
		}
	}
	return result, nil
}

func (e *Engine) score(offer Offer, buyer *geo.LatLng) (Scores, *float64) {
	stockScore := float64(offer.Stock) * 100 / float64(e.cfg.ReferenceStock)
	if stockScore > 100 {
		stockScore = 100
	}
	if stockScore < 0 {
		stockScore = 0
	}

	distanceScore := neutralDistanceScore
	var distKm *float64
	if buyer != nil && offer.Location != nil {
		km := geo.Distance(*buyer, *offer.Location)
		distKm = &km
		distanceScore = 100 - km*e.cfg.DecayFactor
		if distanceScore < 0 {
			distanceScore = 0
		}
	}

	ratingScore := offer.Rating
	if ratingScore < 0 {
		ratingScore = 0
	}
	if ratingScore > 100 {
		ratingScore = 100
	}

	total := e.cfg.StockWeight*stockScore +
		e.cfg.DistanceWeight*distanceScore +
		e.cfg.RatingWeight*ratingScore

	return Scores{
		Stock:    round2(stockScore),
		Distance: round2(distanceScore),
		Rating:   round2(ratingScore),
		Total:    round2(total),
	}, distKm
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
