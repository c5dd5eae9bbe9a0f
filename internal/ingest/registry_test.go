package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriguard/subsidy-cli/internal/store"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFarmers(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	path := writeCSV(t, "farmers.csv", `Farmer ID,Village,Land Size Acres,Kharif Crop,Rabi Crop,Soil Type,Phone No
FAR000001,Rampur Village,4.9421,Rice,Wheat,Alluvial,9000000001
FAR000002,Keshavpur,,nan,Oats,Loamy,9000000002
,GreenVillage,2.0,Rice,,Clay,9000000003
`)

	n, err := ImportFarmers(ctx, st, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := st.FindFarmer(ctx, "FAR000001")
	require.NoError(t, err)
	assert.Equal(t, "Rampur Village", f.Village)
	assert.InDelta(t, 2.0, f.LandHectares, 1e-4)
	assert.Equal(t, "Rice", f.KharifCrop)
	assert.Equal(t, "Wheat", f.RabiCrop)

	// "nan" crop cells are treated as empty.
	f, err = st.FindFarmer(ctx, "FAR000002")
	require.NoError(t, err)
	assert.Empty(t, f.KharifCrop)
	assert.Equal(t, "Oats", f.RabiCrop)
	assert.Zero(t, f.LandHectares)
}

func TestImportFarmersHectaresColumnWins(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	path := writeCSV(t, "farmers.csv", `farmer_id,village,land_hectares,land_size_acres,soil_type
FAR000001,Rampur Village,3.5,100,Alluvial
`)

	_, err := ImportFarmers(ctx, st, path)
	require.NoError(t, err)

	f, err := st.FindFarmer(ctx, "FAR000001")
	require.NoError(t, err)
	assert.Equal(t, 3.5, f.LandHectares)
}

func TestImportFarmersMissingIDColumn(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "farmers.csv", "village,soil_type\nRampur Village,Alluvial\n")

	_, err := ImportFarmers(ctx, store.NewMemory(), path)
	assert.ErrorContains(t, err, "no farmer_id column")
}

func TestImportDealers(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	path := writeCSV(t, "dealers.csv", `dealer_id,dealer_name,village,license_active
DEA0001,Rampur Agro,Rampur Village,True
DEA0002,Keshavpur Agro,Keshavpur,Inactive
DEA0003,Green Agro,GreenVillage,1
DEA0004,Odd Agro,GreenVillage,suspended
`)

	n, err := ImportDealers(ctx, st, path)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	active := map[string]bool{"DEA0001": true, "DEA0002": false, "DEA0003": true, "DEA0004": false}
	for id, want := range active {
		d, err := st.FindDealer(ctx, id)
		require.NoError(t, err)
		assert.Equalf(t, want, d.LicenseActive, "dealer %s", id)
	}
}

func TestImportRelationships(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	path := writeCSV(t, "relationships.csv", `dealer_id,farmer_id,relationship_status,claimed_fertiliser_qty_kg,max_allowed_txns_per_year,recorded_at
DEA0001,FAR000001,Active,"1,200.5",3.0,2025-06-01
DEA0001,FAR000001,Inactive,800,3,2025-01-15
DEA0002,FAR000002,,500,2,
`)

	n, err := ImportRelationships(ctx, st, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rel, err := st.FindRelationship(ctx, "DEA0001", "FAR000001")
	require.NoError(t, err)
	assert.Equal(t, 1200.5, rel.ClaimedKg)
	assert.Equal(t, 3, rel.MaxTxnsPerYear)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), rel.RecordedAt)

	count, err := st.CountRelationships(ctx, "DEA0001", "FAR000001")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Blank status defaults to Active.
	rel, err = st.FindRelationship(ctx, "DEA0002", "FAR000002")
	require.NoError(t, err)
	assert.Equal(t, "Active", string(rel.Status))
}

func TestImportRelationshipsBadQuantity(t *testing.T) {
	ctx := context.Background()
	path := writeCSV(t, "relationships.csv", `dealer_id,farmer_id,claimed_fertiliser_qty_kg,max_allowed_txns_per_year
DEA0001,FAR000001,plenty,3
`)

	_, err := ImportRelationships(ctx, store.NewMemory(), path)
	assert.ErrorContains(t, err, "claimed quantity")
}

func TestReadTableRejectsUnknownExtension(t *testing.T) {
	_, err := readTable("registry.pdf")
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "land_size_acres", normalizeHeader(" Land Size Acres "))
	assert.Equal(t, "farmer_id", normalizeHeader("FARMER ID"))
	assert.Equal(t, "dealer_id", normalizeHeader("dealer_id"))
}
