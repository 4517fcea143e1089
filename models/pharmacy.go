package models

import "time"

// Pharmacy availability discriminator values.
const (
	AvailabilityInStock       = "in_stock"
	AvailabilityNoPharmacies  = "no_pharmacies"
	AvailabilityOutOfStock    = "out_of_stock"
	AvailabilityLocationError = "location_error"
	AvailabilityNone          = "none"
)

// ReservedItem is one medicine line held at the matched pharmacy.
type ReservedItem struct {
	SKU              string  `json:"sku"`
	DrugName         string  `json:"drug_name"`
	Form             string  `json:"form"`
	Strength         string  `json:"strength"`
	UnitPrice        float64 `json:"unit_price"`
	ReservedQuantity int     `json:"reserved_quantity"`
	LineTotal        float64 `json:"line_total"`
}

// PharmacyMatch is the typed result of pharmacy matching. It never carries
// an error; degraded outcomes are expressed through Availability.
type PharmacyMatch struct {
	PharmacyID           string         `json:"pharmacy_id"`
	PharmacyName         string         `json:"pharmacy_name"`
	DistanceKm           float64        `json:"distance_km"`
	ETAMin               int            `json:"eta_min"`
	DeliveryFee          float64        `json:"delivery_fee"`
	Items                []ReservedItem `json:"items"`
	Subtotal             float64        `json:"subtotal"`
	TotalPrice           float64        `json:"total_price"`
	StockPercentage      float64        `json:"stock_percentage"`
	MissingSKUs          []string       `json:"missing_skus,omitempty"`
	Services             []string       `json:"services,omitempty"`
	Availability         string         `json:"availability"`
	ReservationID        string         `json:"reservation_id,omitempty"`
	ReservationExpiresAt time.Time      `json:"reservation_expires_at,omitempty"`
	EstimatedDelivery    time.Time      `json:"estimated_delivery,omitempty"`
	Message              string         `json:"message,omitempty"`
	Recommendation       string         `json:"recommendation,omitempty"`
}
