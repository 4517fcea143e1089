package models

// Reference data rows, loaded once at startup and treated as read-only.

// Medicine is one row of the OTC medicine catalog.
type Medicine struct {
	SKU                   string   `json:"sku"`
	DrugName              string   `json:"drug_name"`
	Indication            string   `json:"indication"`
	AgeMin                int      `json:"age_min"`
	ContraAllergyKeywords []string `json:"contra_allergy_keywords"`
}

// Interaction is an undirected drug-drug interaction pair.
type Interaction struct {
	DrugA string `json:"drug_a"`
	DrugB string `json:"drug_b"`
	Level string `json:"level"` // mild, moderate, high, severe
	Note  string `json:"note"`
}

// Pharmacy is one reference pharmacy record.
type Pharmacy struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	DeliveryKm float64  `json:"delivery_km"`
	Services   []string `json:"services"`
}

// InventoryItem is one pharmacy stock row.
type InventoryItem struct {
	PharmacyID string  `json:"pharmacy_id"`
	SKU        string  `json:"sku"`
	DrugName   string  `json:"drug_name"`
	Form       string  `json:"form"`
	Strength   string  `json:"strength"`
	Price      float64 `json:"price"`
	Qty        int     `json:"qty"`
}

// Doctor is one reference doctor record.
type Doctor struct {
	DoctorID        string   `json:"doctor_id"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty"`
	TeleAvailable   bool     `json:"tele_available"`
	ConsultationFee int      `json:"consultation_fee"`
	ExperienceYears int      `json:"experience_years"`
	Languages       []string `json:"languages"`
	AvailableSlots  []string `json:"available_slots"` // ISO timestamps
}

// Zipcode maps a pincode to coordinates.
type Zipcode struct {
	Pincode string  `json:"pincode"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
