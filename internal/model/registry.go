// Package model defines the registry entities and evaluation records shared
// across the store, ingest, and risk packages.
package model

import "time"

// RelationshipStatus is the lifecycle state of a dealer-farmer authorization.
type RelationshipStatus string

const (
	RelationshipActive   RelationshipStatus = "Active"
	RelationshipInactive RelationshipStatus = "Inactive"
)

// Farmer is a government registry record. LandHectares is always stored in
// hectares; source files in acres are converted at the ingest boundary.
type Farmer struct {
	ID           string  `json:"farmer_id"`
	Village      string  `json:"village"`
	LandHectares float64 `json:"land_hectares"`
	KharifCrop   string  `json:"kharif_crop,omitempty"`
	RabiCrop     string  `json:"rabi_crop,omitempty"`
	SoilType     string  `json:"soil_type"`
	AadhaarNo    string  `json:"aadhaar_no,omitempty"`
	PhoneNo      string  `json:"phone_no,omitempty"`
}

// Dealer is a government registry record for a licensed fertilizer dealer.
type Dealer struct {
	ID            string `json:"dealer_id"`
	Name          string `json:"dealer_name,omitempty"`
	Village       string `json:"village"`
	LicenseActive bool   `json:"license_active"`
}

// Relationship is one row of the append-only dealer-farmer claim history.
// Multiple rows may exist for the same pair; "most recent" means latest
// RecordedAt, ties broken by insertion order.
type Relationship struct {
	DealerID       string             `json:"dealer_id"`
	FarmerID       string             `json:"farmer_id"`
	Status         RelationshipStatus `json:"relationship_status"`
	ClaimedKg      float64            `json:"claimed_fertiliser_qty_kg"`
	MaxTxnsPerYear int                `json:"max_allowed_txns_per_year"`
	RecordedAt     time.Time          `json:"recorded_at"`
}
