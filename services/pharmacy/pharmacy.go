// Package pharmacy resolves the patient location, finds nearby pharmacies
// within delivery range, checks stock against the OTC plan and places a mock
// reservation at the best match. Degraded outcomes never surface as errors;
// they are typed through the match's Availability field.
package pharmacy

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"medtriage/database/reference"
	"medtriage/models"
)

// EventSink receives per-request pipeline events.
type EventSink interface {
	Record(agent, level, message string, metadata map[string]interface{})
}

const agentName = "PharmacyAgent"

const (
	reservationTTL    = 2 * time.Hour
	packingDelayMin   = 15.0
	trafficBufferFrac = 0.10
)

// Matcher implements the pharmacy stage.
type Matcher struct {
	Ref           *reference.Store
	MaxRadiusKm   float64
	SpeedKmph     float64
	BaseFee       float64
	PerKmCharge   float64
	DefaultCoords models.Coordinates

	// now is swappable for deterministic reservation tests.
	now func() time.Time
}

// NewMatcher builds a Matcher from resolved configuration values.
func NewMatcher(ref *reference.Store, maxRadiusKm, speedKmph, baseFee, perKmCharge float64, defaultCoords models.Coordinates) *Matcher {
	return &Matcher{
		Ref:           ref,
		MaxRadiusKm:   maxRadiusKm,
		SpeedKmph:     speedKmph,
		BaseFee:       baseFee,
		PerKmCharge:   perKmCharge,
		DefaultCoords: defaultCoords,
		now:           time.Now,
	}
}

// candidate pairs a pharmacy with its distance and stock coverage.
type candidate struct {
	pharmacy models.Pharmacy
	distance float64
	stocked  []models.InventoryItem
	stockPct float64
	missing  []string
}

// Match finds the best pharmacy for the plan's OTC options.
func (m *Matcher) Match(options []models.OTCOption, location models.Location, sink EventSink) *models.PharmacyMatch {
	if len(options) == 0 {
		return &models.PharmacyMatch{
			Items:        []models.ReservedItem{},
			Availability: models.AvailabilityNone,
			Message:      "No OTC medicines to reserve",
		}
	}

	coords, ok := m.resolveCoordinates(location, sink)
	if !ok {
		return &models.PharmacyMatch{
			Items:        []models.ReservedItem{},
			Availability: models.AvailabilityLocationError,
			Message:      "Could not resolve patient location",
			Recommendation: "Provide a valid 6-digit pincode and retry, or visit a local " +
				"pharmacy with the recommended medicine list",
		}
	}

	nearby := m.findNearby(coords)
	if len(nearby) == 0 {
		sink.Record(agentName, models.LevelWarning, "No pharmacies deliver to this location", nil)
		return &models.PharmacyMatch{
			Items:        []models.ReservedItem{},
			Availability: models.AvailabilityNoPharmacies,
			Message:      fmt.Sprintf("No pharmacies deliver within %.0f km of pincode %s", m.MaxRadiusKm, location.Pincode),
			Recommendation: "Visit your nearest medical store with the recommended medicine list, " +
				"or try a different delivery address",
		}
	}

	needed := make([]string, len(options))
	for i, opt := range options {
		needed[i] = opt.SKU
	}

	stocked := make([]candidate, 0, len(nearby))
	for i := range nearby {
		m.fillStock(&nearby[i], needed)
		if len(nearby[i].stocked) > 0 {
			stocked = append(stocked, nearby[i])
		}
	}

	if len(stocked) == 0 {
		nearest := nearby[0]
		sink.Record(agentName, models.LevelWarning, "Nearby pharmacies have none of the required stock", nil)
		return &models.PharmacyMatch{
			PharmacyID:   nearest.pharmacy.ID,
			PharmacyName: nearest.pharmacy.Name,
			DistanceKm:   round2(nearest.distance),
			Items:        []models.ReservedItem{},
			MissingSKUs:  nearest.missing,
			Availability: models.AvailabilityOutOfStock,
			Message:      "Nearby pharmacies are out of the recommended medicines",
			Recommendation: "Ask the pharmacy about equivalent brands, or place the order " +
				"again later when stock is replenished",
		}
	}

	// Best coverage first, nearest breaks ties.
	sort.SliceStable(stocked, func(i, j int) bool {
		if stocked[i].stockPct != stocked[j].stockPct {
			return stocked[i].stockPct > stocked[j].stockPct
		}
		return stocked[i].distance < stocked[j].distance
	})
	best := stocked[0]

	match := m.reserve(best, options)
	sink.Record(agentName, models.LevelSuccess,
		fmt.Sprintf("Reserved %d items at %s (%.1f km)", len(match.Items), best.pharmacy.Name, best.distance),
		map[string]interface{}{"reservation_id": match.ReservationID})
	return match
}

// resolveCoordinates maps the pincode to coordinates, falling back to the
// configured default area when the pincode is unknown.
func (m *Matcher) resolveCoordinates(location models.Location, sink EventSink) (models.Coordinates, bool) {
	if location.Pincode == "" {
		return models.Coordinates{}, false
	}
	if coords, ok := m.Ref.CoordinatesFor(location.Pincode); ok {
		return coords, true
	}
	sink.Record(agentName, models.LevelWarning,
		fmt.Sprintf("Pincode %s not in coverage map, using default service area", location.Pincode), nil)
	return m.DefaultCoords, true
}

// findNearby returns pharmacies sorted by distance whose delivery range
// covers the patient. The search radius never exceeds the configured cap.
func (m *Matcher) findNearby(coords models.Coordinates) []candidate {
	var result []candidate
	for _, p := range m.Ref.Pharmacies {
		dist := haversine(coords.Lat, coords.Lon, p.Lat, p.Lon)
		radius := math.Min(m.MaxRadiusKm, p.DeliveryKm)
		if dist <= radius {
			result = append(result, candidate{pharmacy: p, distance: dist})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].distance < result[j].distance
	})
	return result
}

// fillStock intersects the needed SKUs with the pharmacy inventory.
func (m *Matcher) fillStock(c *candidate, needed []string) {
	inventory := m.Ref.InventoryFor(c.pharmacy.ID)
	bySKU := make(map[string]models.InventoryItem, len(inventory))
	for _, item := range inventory {
		bySKU[item.SKU] = item
	}

	for _, sku := range needed {
		item, ok := bySKU[sku]
		if ok && item.Qty > 0 {
			c.stocked = append(c.stocked, item)
		} else {
			c.missing = append(c.missing, sku)
		}
	}
	c.stockPct = round2(float64(len(c.stocked)) / float64(len(needed)) * 100)
}

// reserve builds the mock reservation at the chosen pharmacy.
func (m *Matcher) reserve(c candidate, options []models.OTCOption) *models.PharmacyMatch {
	optBySKU := make(map[string]models.OTCOption, len(options))
	for _, opt := range options {
		optBySKU[opt.SKU] = opt
	}

	now := m.now()
	items := make([]models.ReservedItem, 0, len(c.stocked))
	subtotal := 0.0
	for _, stock := range c.stocked {
		opt := optBySKU[stock.SKU]
		qty := estimatedQuantity(opt.Frequency, opt.Duration)
		if qty > stock.Qty {
			qty = stock.Qty
		}
		lineTotal := round2(float64(qty) * stock.Price)
		subtotal += lineTotal
		items = append(items, models.ReservedItem{
			SKU:              stock.SKU,
			DrugName:         stock.DrugName,
			Form:             stock.Form,
			Strength:         stock.Strength,
			UnitPrice:        stock.Price,
			ReservedQuantity: qty,
			LineTotal:        lineTotal,
		})
	}

	fee := round2(m.BaseFee + c.distance*m.PerKmCharge)
	subtotal = round2(subtotal)
	eta := m.estimateETA(c.distance)

	return &models.PharmacyMatch{
		PharmacyID:           c.pharmacy.ID,
		PharmacyName:         c.pharmacy.Name,
		DistanceKm:           round2(c.distance),
		ETAMin:               eta,
		DeliveryFee:          fee,
		Items:                items,
		Subtotal:             subtotal,
		TotalPrice:           round2(subtotal + fee),
		StockPercentage:      c.stockPct,
		MissingSKUs:          c.missing,
		Services:             c.pharmacy.Services,
		Availability:         models.AvailabilityInStock,
		ReservationID:        m.reservationID(c.pharmacy.ID, now),
		ReservationExpiresAt: now.Add(reservationTTL),
		EstimatedDelivery:    now.Add(time.Duration(eta) * time.Minute),
		Message:              fmt.Sprintf("Reservation held at %s for 2 hours", c.pharmacy.Name),
	}
}

// estimateETA adds packing time and a traffic buffer to the travel time and
// rounds up to the next 5 minutes.
func (m *Matcher) estimateETA(distanceKm float64) int {
	travelMin := distanceKm / m.SpeedKmph * 60
	total := travelMin + packingDelayMin + travelMin*trafficBufferFrac
	return int(math.Ceil(total/5) * 5)
}

// reservationID derives a pseudo-unique id from the pharmacy and the current
// minute. Two reservations at the same pharmacy within the same minute
// collide; acceptable for a mock reservation with a short TTL.
func (m *Matcher) reservationID(pharmacyID string, now time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", pharmacyID, now.Unix()/60)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return fmt.Sprintf("RSV%06d", rng.Intn(1000000))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
