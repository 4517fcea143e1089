package pharmacy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtriage/database/reference"
	"medtriage/models"
)

type nopSink struct{}

func (nopSink) Record(agent, level, message string, metadata map[string]interface{}) {}

// writeFixtures builds a minimal data dir: two pharmacies in south Mumbai,
// one of which stocks both test SKUs.
func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"meds.csv": "sku,drug_name,indication,age_min,contra_allergy_keywords\n" +
			"MED001,Paracetamol,fever; pain,6,paracetamol\n" +
			"MED003,Dextromethorphan Syrup,dry cough,6,\n",
		"interactions.csv": "drug_a,drug_b,level,note\n" +
			"Paracetamol,Warfarin,moderate,May enhance anticoagulant effect\n",
		"pharmacies.json": `[
			{"id": "PH001", "name": "Fort Chemist", "lat": 18.9340, "lon": 72.8356, "delivery_km": 8, "services": ["home_delivery"]},
			{"id": "PH002", "name": "Colaba Pharmacy", "lat": 18.9067, "lon": 72.8147, "delivery_km": 10, "services": ["home_delivery"]}
		]`,
		"inventory.csv": "pharmacy_id,sku,drug_name,form,strength,price,qty\n" +
			"PH001,MED001,Paracetamol,Tablet,500mg,2.5,100\n" +
			"PH001,MED003,Dextromethorphan Syrup,Syrup,100ml,85.0,2\n" +
			"PH002,MED001,Paracetamol,Tablet,650mg,3.0,50\n",
		"doctors.csv": "doctor_id,name,specialty,tele_available,consultation_fee,experience_years,languages,available_slots\n" +
			"DOC001,Dr. Test,General Physician,true,400,10,English,2027-01-05T10:00:00Z\n",
		"zipcodes.csv": "pincode,lat,lon,city\n" +
			"400001,18.9388,72.8354,Mumbai\n" +
			"110001,28.6304,77.2177,New Delhi\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	ref, err := reference.Load(writeFixtures(t))
	require.NoError(t, err)

	// Default service area sits in south Mumbai, within fixture delivery range.
	m := NewMatcher(ref, 25, 30, 25, 5, models.Coordinates{Lat: 18.9400, Lon: 72.8350})
	m.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return m
}

func testOptions() []models.OTCOption {
	return []models.OTCOption{
		{SKU: "MED001", DrugName: "Paracetamol", Frequency: "every 6-8 hours", Duration: "3-5 days"},
		{SKU: "MED003", DrugName: "Dextromethorphan Syrup", Frequency: "three times daily", Duration: "5 days"},
	}
}

func TestMatchReservesAtBestPharmacy(t *testing.T) {
	m := newTestMatcher(t)

	match := m.Match(testOptions(), models.Location{Pincode: "400001"}, nopSink{})

	require.Equal(t, models.AvailabilityInStock, match.Availability)
	// PH001 stocks both SKUs, PH002 only one; coverage beats distance.
	assert.Equal(t, "PH001", match.PharmacyID)
	assert.InDelta(t, 100.0, match.StockPercentage, 0.01)
	require.Len(t, match.Items, 2)

	for _, item := range match.Items {
		assert.GreaterOrEqual(t, item.ReservedQuantity, 1)
		assert.LessOrEqual(t, item.ReservedQuantity, maxReservedQty)
		assert.InDelta(t, float64(item.ReservedQuantity)*item.UnitPrice, item.LineTotal, 0.01)
	}

	// The syrup has only 2 units on hand; reservation must not exceed stock.
	for _, item := range match.Items {
		if item.SKU == "MED003" {
			assert.Equal(t, 2, item.ReservedQuantity)
		}
	}

	assert.InDelta(t, match.Subtotal+match.DeliveryFee, match.TotalPrice, 0.01)
	assert.Regexp(t, `^RSV\d{6}$`, match.ReservationID)
	assert.Equal(t, m.now().Add(2*time.Hour), match.ReservationExpiresAt)
	assert.Greater(t, match.ETAMin, 0)
	assert.Zero(t, match.ETAMin%5, "ETA rounds to 5 minute steps")
}

func TestMatchNoPharmaciesInRange(t *testing.T) {
	m := newTestMatcher(t)

	// Delhi pincode resolves, but every pharmacy is over 1000 km away.
	match := m.Match(testOptions(), models.Location{Pincode: "110001"}, nopSink{})

	assert.Equal(t, models.AvailabilityNoPharmacies, match.Availability)
	assert.Empty(t, match.Items)
	assert.Zero(t, match.DistanceKm)
	assert.NotEmpty(t, match.Recommendation)
}

func TestMatchOutOfStock(t *testing.T) {
	m := newTestMatcher(t)

	options := []models.OTCOption{{SKU: "MED999", DrugName: "Unstocked", Frequency: "once daily", Duration: "3 days"}}
	match := m.Match(options, models.Location{Pincode: "400001"}, nopSink{})

	assert.Equal(t, models.AvailabilityOutOfStock, match.Availability)
	assert.Empty(t, match.Items)
	assert.NotEmpty(t, match.PharmacyName, "out of stock result names the nearest pharmacy")
	assert.Contains(t, match.MissingSKUs, "MED999")
}

func TestMatchLocationError(t *testing.T) {
	m := newTestMatcher(t)

	match := m.Match(testOptions(), models.Location{Pincode: ""}, nopSink{})
	assert.Equal(t, models.AvailabilityLocationError, match.Availability)
}

func TestMatchNothingToReserve(t *testing.T) {
	m := newTestMatcher(t)

	match := m.Match(nil, models.Location{Pincode: "400001"}, nopSink{})
	assert.Equal(t, models.AvailabilityNone, match.Availability)
}

func TestMatchUnknownPincodeFallsBackToDefaultArea(t *testing.T) {
	m := newTestMatcher(t)

	// 999999 is not in the coverage map; the default Mumbai coordinates are
	// close enough to still find a pharmacy.
	match := m.Match(testOptions(), models.Location{Pincode: "999999"}, nopSink{})
	assert.Equal(t, models.AvailabilityInStock, match.Availability)
}

func TestDailyDoses(t *testing.T) {
	tests := []struct {
		frequency string
		want      int
	}{
		{"once daily at bedtime", 1},
		{"twice daily", 2},
		{"every 12 hours", 2},
		{"three times daily", 3},
		{"every 6-8 hours", 4},
		{"every 8 hours", 3},
		{"as needed", 1},
		{"", 1},
	}
	for _, tc := range tests {
		t.Run(tc.frequency, func(t *testing.T) {
			assert.Equal(t, tc.want, dailyDoses(tc.frequency))
		})
	}
}

func TestEstimatedQuantityClamped(t *testing.T) {
	// 4 doses/day for 5 days would be 20, clamped to the dispensing cap.
	assert.Equal(t, maxReservedQty, estimatedQuantity("every 6-8 hours", "3-5 days"))
	// Unparseable duration falls back to 3 days.
	assert.Equal(t, 3, estimatedQuantity("once daily", "as directed"))
}

func TestReservationIDStableWithinMinute(t *testing.T) {
	m := newTestMatcher(t)
	now := m.now()
	assert.Equal(t, m.reservationID("PH001", now), m.reservationID("PH001", now.Add(30*time.Second)))
	assert.NotEqual(t, m.reservationID("PH001", now), m.reservationID("PH002", now))
}
