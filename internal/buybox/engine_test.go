package buybox

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djassa/djassa-backend/pkg/config"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/geo"
)

func defaultEngine() *Engine {
	return NewEngine(config.BuyBoxConfig{
		StockWeight:    0.40,
		DistanceWeight: 0.35,
		RatingWeight:   0.25,
		ReferenceStock: 100,
		DecayFactor:    1.0,
	})
}

// latOffsetKm returns a point the given number of kilometres due north of
// origin, which keeps the haversine distance exact.
func latOffsetKm(origin geo.LatLng, km float64) geo.LatLng {
	return geo.LatLng{
		Lat: origin.Lat + km/6371.0*180/math.Pi,
		Lng: origin.Lng,
	}
}

func TestEngineRankWeightsDeepStockBeatsProximity(t *testing.T) {
	engine := defaultEngine()
	buyer := geo.LatLng{Lat: 5.35, Lng: -4.02}

	locA := latOffsetKm(buyer, 2)
	locB := latOffsetKm(buyer, 1)
	merchantA := uuid.New()
	merchantB := uuid.New()

	result, err := engine.Rank([]Offer{
		{ProductID: uuid.New(), MerchantID: merchantA, Price: 1000, Stock: 100, Rating: 90, Location: &locA},
		{ProductID: uuid.New(), MerchantID: merchantB, Price: 1000, Stock: 10, Rating: 95, Location: &locB},
	}, &buyer)
	require.NoError(t, err)
	require.NotNil(t, result.Winner)

	assert.Equal(t, merchantA, result.Winner.MerchantID)
	assert.InDelta(t, 96.8, result.Winner.Scores.Total, 0.01)
	assert.InDelta(t, 100.0, result.Winner.Scores.Stock, 0.01)
	assert.InDelta(t, 98.0, result.Winner.Scores.Distance, 0.01)

	runnerUp := result.Offers[1]
	assert.Equal(t, merchantB, runnerUp.MerchantID)
	assert.InDelta(t, 62.4, runnerUp.Scores.Total, 0.01)
	assert.False(t, runnerUp.Winner)
}

func TestEngineRankNeutralDistanceWithoutBuyerLocation(t *testing.T) {
	engine := defaultEngine()
	loc := geo.LatLng{Lat: 5.35, Lng: -4.02}

	result, err := engine.Rank([]Offer{
		{MerchantID: uuid.New(), Stock: 50, Rating: 80, Location: &loc},
	}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, result.Offers[0].Scores.Distance, 0.01)
	assert.Nil(t, result.Offers[0].DistanceKm)
}

func TestEngineRankNeutralDistanceWithoutOfferLocation(t *testing.T) {
	engine := defaultEngine()
	buyer := geo.LatLng{Lat: 5.35, Lng: -4.02}

	result, err := engine.Rank([]Offer{
		{MerchantID: uuid.New(), Stock: 50, Rating: 80},
	}, &buyer)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, result.Offers[0].Scores.Distance, 0.01)
}

func TestEngineRankStockScoreCapsAtReference(t *testing.T) {
	engine := defaultEngine()

	result, err := engine.Rank([]Offer{
		{MerchantID: uuid.New(), Stock: 5000, Rating: 0},
	}, nil)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, result.Offers[0].Scores.Stock, 0.01)
}

func TestEngineRankZeroStockNeverWins(t *testing.T) {
	engine := defaultEngine()
	starved := uuid.New()
	stocked := uuid.New()

	result, err := engine.Rank([]Offer{
		{MerchantID: starved, Stock: 0, Rating: 100, Price: 500},
		{MerchantID: stocked, Stock: 5, Rating: 10, Price: 900},
	}, nil)
	require.NoError(t, err)

	// The starved offer still tops the ranking on total score but the
	// winner flag must land on the offer that can actually fulfil.
	assert.Equal(t, starved, result.Offers[0].MerchantID)
	require.NotNil(t, result.Winner)
	assert.Equal(t, stocked, result.Winner.MerchantID)
	assert.False(t, result.Offers[0].Winner)
}

func TestEngineRankAllOffersOutOfStock(t *testing.T) {
	engine := defaultEngine()

	result, err := engine.Rank([]Offer{
		{MerchantID: uuid.New(), Stock: 0, Rating: 50},
		{MerchantID: uuid.New(), Stock: 0, Rating: 70},
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, result.Winner)
	assert.Len(t, result.Offers, 2)
	assert.Equal(t, 2, result.TotalMerchants)
}

func TestEngineRankTieBreaksOnPriceThenMerchant(t *testing.T) {
	engine := defaultEngine()
	cheap := uuid.New()
	expensive := uuid.New()

	result, err := engine.Rank([]Offer{
		{MerchantID: expensive, Stock: 20, Rating: 60, Price: 2000},
		{MerchantID: cheap, Stock: 20, Rating: 60, Price: 1500},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, cheap, result.Offers[0].MerchantID)

	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idB := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	result, err = engine.Rank([]Offer{
		{MerchantID: idB, Stock: 20, Rating: 60, Price: 1500},
		{MerchantID: idA, Stock: 20, Rating: 60, Price: 1500},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, idA, result.Offers[0].MerchantID)
}

func TestEngineRankEmptyOffers(t *testing.T) {
	engine := defaultEngine()

	_, err := engine.Rank(nil, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
