package ingest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/reference"
	"github.com/agriguard/subsidy-cli/internal/store"
)

// ImportFarmers loads a farmer registry file. Returns the number of rows
// imported. Rows without a farmer id are skipped with a warning rather than
// aborting the import; registry extracts routinely carry blank trailing rows.
func ImportFarmers(ctx context.Context, st store.Store, path string) (int, error) {
	t, err := readTable(path)
	if err != nil {
		return 0, err
	}

	idIdx := t.col("farmer_id", "aadhaar", "aadhar_no")
	if idIdx < 0 {
		return 0, eris.Errorf("ingest: %s has no farmer_id column", path)
	}
	villageIdx := t.col("village", "place")
	hectaresIdx := t.col("land_hectares", "land_size_hectares")
	acresIdx := t.col("land_size_acres", "land_acres")
	kharifIdx := t.col("kharif_crop", "crop")
	rabiIdx := t.col("rabi_crop")
	soilIdx := t.col("soil_type", "soil")
	aadhaarIdx := t.col("aadhaar_no", "aadhar_no", "aadhaar")
	phoneIdx := t.col("phone_no", "phone")

	imported := 0
	for i, row := range t.rows {
		id := cell(row, idIdx)
		if id == "" {
			zap.L().Warn("ingest: skipping farmer row without id", zap.String("file", path), zap.Int("row", i+2))
			continue
		}

		// Hectares column wins when both units are present.
		land := 0.0
		if v := cell(row, hectaresIdx); v != "" {
			land, err = parseFloat(v)
		} else if v := cell(row, acresIdx); v != "" {
			land, err = parseFloat(v)
			land = reference.AcresToHectares(land)
		}
		if err != nil {
			return imported, eris.Wrapf(err, "ingest: %s row %d: land size", path, i+2)
		}

		f := model.Farmer{
			ID:           id,
			Village:      cell(row, villageIdx),
			LandHectares: land,
			KharifCrop:   cleanCrop(cell(row, kharifIdx)),
			RabiCrop:     cleanCrop(cell(row, rabiIdx)),
			SoilType:     cell(row, soilIdx),
			AadhaarNo:    cell(row, aadhaarIdx),
			PhoneNo:      cell(row, phoneIdx),
		}
		if err := st.UpsertFarmer(ctx, f); err != nil {
			return imported, eris.Wrapf(err, "ingest: %s row %d", path, i+2)
		}
		imported++
	}

	zap.L().Info("ingest: farmers imported", zap.String("file", path), zap.Int("rows", imported))
	return imported, nil
}

// ImportDealers loads a dealer registry file.
func ImportDealers(ctx context.Context, st store.Store, path string) (int, error) {
	t, err := readTable(path)
	if err != nil {
		return 0, err
	}

	idIdx := t.col("dealer_id")
	if idIdx < 0 {
		return 0, eris.Errorf("ingest: %s has no dealer_id column", path)
	}
	nameIdx := t.col("dealer_name", "name")
	villageIdx := t.col("village", "place")
	licenseIdx := t.col("license_active", "license_status")

	imported := 0
	for i, row := range t.rows {
		id := cell(row, idIdx)
		if id == "" {
			zap.L().Warn("ingest: skipping dealer row without id", zap.String("file", path), zap.Int("row", i+2))
			continue
		}

		d := model.Dealer{
			ID:            id,
			Name:          cell(row, nameIdx),
			Village:       cell(row, villageIdx),
			LicenseActive: parseLicense(cell(row, licenseIdx)),
		}
		if err := st.UpsertDealer(ctx, d); err != nil {
			return imported, eris.Wrapf(err, "ingest: %s row %d", path, i+2)
		}
		imported++
	}

	zap.L().Info("ingest: dealers imported", zap.String("file", path), zap.Int("rows", imported))
	return imported, nil
}

// ImportRelationships loads the dealer-farmer claim history file.
func ImportRelationships(ctx context.Context, st store.Store, path string) (int, error) {
	t, err := readTable(path)
	if err != nil {
		return 0, err
	}

	dealerIdx := t.col("dealer_id")
	farmerIdx := t.col("farmer_id", "aadhaar")
	if dealerIdx < 0 || farmerIdx < 0 {
		return 0, eris.Errorf("ingest: %s needs dealer_id and farmer_id columns", path)
	}
	statusIdx := t.col("relationship_status", "status")
	qtyIdx := t.col("claimed_fertiliser_qty_kg", "claimed_fertilizer_qty_kg", "fertilizer_kg")
	capIdx := t.col("max_allowed_txns_per_year", "max_txns_per_year")
	dateIdx := t.col("recorded_at", "date")

	imported := 0
	for i, row := range t.rows {
		dealerID, farmerID := cell(row, dealerIdx), cell(row, farmerIdx)
		if dealerID == "" || farmerID == "" {
			zap.L().Warn("ingest: skipping relationship row without ids", zap.String("file", path), zap.Int("row", i+2))
			continue
		}

		qty, err := parseFloat(cell(row, qtyIdx))
		if err != nil {
			return imported, eris.Wrapf(err, "ingest: %s row %d: claimed quantity", path, i+2)
		}
		maxTxns, err := parseInt(cell(row, capIdx))
		if err != nil {
			return imported, eris.Wrapf(err, "ingest: %s row %d: transaction cap", path, i+2)
		}

		status := model.RelationshipStatus(cell(row, statusIdx))
		if status == "" {
			status = model.RelationshipActive
		}

		r := model.Relationship{
			DealerID:       dealerID,
			FarmerID:       farmerID,
			Status:         status,
			ClaimedKg:      qty,
			MaxTxnsPerYear: maxTxns,
			RecordedAt:     parseDate(cell(row, dateIdx)),
		}
		if err := st.AddRelationship(ctx, r); err != nil {
			return imported, eris.Wrapf(err, "ingest: %s row %d", path, i+2)
		}
		imported++
	}

	zap.L().Info("ingest: relationships imported", zap.String("file", path), zap.Int("rows", imported))
	return imported, nil
}

// cleanCrop drops the literal "nan" that CSV exports of missing cells carry.
func cleanCrop(s string) string {
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	// Some exports render integer columns as "3.0".
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// parseLicense accepts the boolean and status-string spellings seen across
// registry exports. Unknown values mean inactive: a license we cannot read is
// a license we cannot trust.
func parseLicense(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "active", "y":
		return true
	default:
		return false
	}
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02/01/2006"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
