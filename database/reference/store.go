// Package reference loads the read-only flat-file tables (medicines,
// interactions, pharmacies, inventory, doctors, zipcodes) into memory at
// process start. Missing or malformed files are fatal at initialization.
package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"medtriage/models"
)

// Store holds every reference table fully in memory.
type Store struct {
	Medicines    []models.Medicine
	Interactions []models.Interaction
	Pharmacies   []models.Pharmacy
	Doctors      []models.Doctor

	inventory map[string][]models.InventoryItem // keyed by pharmacy id
	zipcodes  map[string]models.Zipcode         // keyed by pincode
}

// Load reads all reference tables from dataDir.
func Load(dataDir string) (*Store, error) {
	s := &Store{
		inventory: make(map[string][]models.InventoryItem),
		zipcodes:  make(map[string]models.Zipcode),
	}

	if err := s.loadMedicines(filepath.Join(dataDir, "meds.csv")); err != nil {
		return nil, fmt.Errorf("load medicines: %w", err)
	}
	if err := s.loadInteractions(filepath.Join(dataDir, "interactions.csv")); err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if err := s.loadPharmacies(filepath.Join(dataDir, "pharmacies.json")); err != nil {
		return nil, fmt.Errorf("load pharmacies: %w", err)
	}
	if err := s.loadInventory(filepath.Join(dataDir, "inventory.csv")); err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	if err := s.loadDoctors(filepath.Join(dataDir, "doctors.csv")); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	if err := s.loadZipcodes(filepath.Join(dataDir, "zipcodes.csv")); err != nil {
		return nil, fmt.Errorf("load zipcodes: %w", err)
	}

	return s, nil
}

// InventoryFor returns the stock rows for one pharmacy.
func (s *Store) InventoryFor(pharmacyID string) []models.InventoryItem {
	return s.inventory[pharmacyID]
}

// CoordinatesFor resolves a pincode to coordinates via exact lookup.
func (s *Store) CoordinatesFor(pincode string) (models.Coordinates, bool) {
	z, ok := s.zipcodes[pincode]
	if !ok {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Lat: z.Lat, Lon: z.Lon}, true
}

// FindInteraction looks up the undirected (a,b) interaction pair.
func (s *Store) FindInteraction(drugA, drugB string) (models.Interaction, bool) {
	a := strings.ToLower(strings.TrimSpace(drugA))
	b := strings.ToLower(strings.TrimSpace(drugB))
	for _, in := range s.Interactions {
		ia := strings.ToLower(in.DrugA)
		ib := strings.ToLower(in.DrugB)
		if (ia == a && ib == b) || (ia == b && ib == a) {
			return in, true
		}
	}
	return models.Interaction{}, false
}

func (s *Store) loadMedicines(path string) error {
	rows, err := readCSV(path, []string{"sku", "drug_name", "indication", "age_min", "contra_allergy_keywords"})
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.Medicines = append(s.Medicines, models.Medicine{
			SKU:                   row["sku"],
			DrugName:              row["drug_name"],
			Indication:            row["indication"],
			AgeMin:                atoiDefault(row["age_min"], 0),
			ContraAllergyKeywords: splitList(row["contra_allergy_keywords"]),
		})
	}
	return nil
}

func (s *Store) loadInteractions(path string) error {
	rows, err := readCSV(path, []string{"drug_a", "drug_b", "level", "note"})
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.Interactions = append(s.Interactions, models.Interaction{
			DrugA: row["drug_a"],
			DrugB: row["drug_b"],
			Level: strings.ToLower(row["level"]),
			Note:  row["note"],
		})
	}
	return nil
}

func (s *Store) loadPharmacies(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(blob, &s.Pharmacies); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (s *Store) loadInventory(path string) error {
	rows, err := readCSV(path, []string{"pharmacy_id", "sku", "drug_name", "form", "strength", "price", "qty"})
	if err != nil {
		return err
	}
	for _, row := range rows {
		item := models.InventoryItem{
			PharmacyID: row["pharmacy_id"],
			SKU:        row["sku"],
			DrugName:   row["drug_name"],
			Form:       row["form"],
			Strength:   row["strength"],
			Price:      atofDefault(row["price"], 0),
			Qty:        atoiDefault(row["qty"], 0),
		}
		s.inventory[item.PharmacyID] = append(s.inventory[item.PharmacyID], item)
	}
	return nil
}

func (s *Store) loadDoctors(path string) error {
	rows, err := readCSV(path, []string{"doctor_id", "name", "specialty", "tele_available", "consultation_fee", "experience_years", "languages", "available_slots"})
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.Doctors = append(s.Doctors, models.Doctor{
			DoctorID:        row["doctor_id"],
			Name:            row["name"],
			Specialty:       row["specialty"],
			TeleAvailable:   parseBool(row["tele_available"]),
			ConsultationFee: atoiDefault(row["consultation_fee"], 0),
			ExperienceYears: atoiDefault(row["experience_years"], 0),
			Languages:       splitList(row["languages"]),
			AvailableSlots:  splitList(row["available_slots"]),
		})
	}
	return nil
}

func (s *Store) loadZipcodes(path string) error {
	rows, err := readCSV(path, []string{"pincode", "lat", "lon", "city"})
	if err != nil {
		return err
	}
	for _, row := range rows {
		z := models.Zipcode{
			Pincode: row["pincode"],
			Lat:     atofDefault(row["lat"], 0),
			Lon:     atofDefault(row["lon"], 0),
			City:    row["city"],
		}
		s.zipcodes[z.Pincode] = z
	}
	return nil
}
