package risk

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/agriguard/subsidy-cli/internal/config"
	"github.com/agriguard/subsidy-cli/internal/model"
	"github.com/agriguard/subsidy-cli/internal/reference"
	"github.com/agriguard/subsidy-cli/internal/store"
)

// Engine evaluates subsidy claims against the registry store. It holds only
// immutable state (reference tables, weights), so a single Engine is safe for
// concurrent evaluations; snapshot isolation of the store during a refresh is
// the calling harness's responsibility.
type Engine struct {
	store  store.Store
	tables *reference.Tables
	cfg    config.RiskConfig
}

// New creates an Engine. The tables must already be validated.
func New(st store.Store, tables *reference.Tables, cfg config.RiskConfig) *Engine {
	return &Engine{store: st, tables: tables, cfg: cfg}
}

// Evaluate runs every applicable risk factor for one claim and assembles the
// result. Factor order is fixed: identity, crop declaration, crop match, crop
// and soil validity, crop-soil compatibility, location, relationship,
// quantity. Evaluation short-circuits when the farmer, dealer, or
// relationship row is missing, since downstream factors have no defined
// inputs; the quantity fields stay nil in that case.
//
// Registry absence is scored, never returned as an error. An error return
// means the store itself failed and the evaluation must not be trusted.
func (e *Engine) Evaluate(ctx context.Context, claim model.ClaimInput) (*model.RiskResult, error) {
	farmerID := strings.TrimSpace(claim.FarmerID)
	dealerID := strings.TrimSpace(claim.DealerID)

	farmer, err := e.store.FindFarmer(ctx, farmerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(err, "risk: resolve farmer %s", farmerID)
	}
	dealer, err := e.store.FindDealer(ctx, dealerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, eris.Wrapf(err, "risk: resolve dealer %s", dealerID)
	}

	total := 0
	var reasons []string

	s, r := identityRisk(farmer, dealer, e.cfg)
	total += s
	reasons = append(reasons, r...)

	if farmer == nil || dealer == nil {
		return e.finalize(claim, total, reasons, nil, nil), nil
	}

	s, r = declaredCropRisk(farmer, e.cfg)
	total += s
	reasons = append(reasons, r...)

	s, r = cropMatchRisk(claim.Crop, farmer, e.cfg)
	total += s
	reasons = append(reasons, r...)

	s, r = cropValidityRisk(claim.Crop, e.tables, e.cfg)
	total += s
	reasons = append(reasons, r...)

	s, r = soilValidityRisk(farmer.SoilType, e.tables, e.cfg)
	total += s
	reasons = append(reasons, r...)

	s, r = cropSoilRisk(claim.Crop, farmer.SoilType, e.tables, e.cfg)
	total += s
	reasons = append(reasons, r...)

	s, r = locationRisk(farmer.Village, dealer.Village, e.cfg)
	total += s
	reasons = append(reasons, r...)

	rel, err := e.store.FindRelationship(ctx, dealerID, farmerID)
	if errors.Is(err, store.ErrNotFound) {
		total += e.cfg.NoRelationshipWeight
		reasons = append(reasons, ReasonNoRelationship)
		return e.finalize(claim, total, reasons, nil, nil), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "risk: resolve relationship %s/%s", dealerID, farmerID)
	}

	historyCount, err := e.store.CountRelationships(ctx, dealerID, farmerID)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: count relationships %s/%s", dealerID, farmerID)
	}

	s, r = relationshipRisk(rel, historyCount, e.cfg)
	total += s
	reasons = append(reasons, r...)

	claimed := rel.ClaimedKg
	expected, ok := expectedFertilizerKg(claim.Crop, farmer, e.tables)
	if !ok {
		// Zero land, unsupported crop, or an unrated soil: the ratio is
		// undefined, so no quantity score is added either way.
		reasons = append(reasons, ReasonQuantityUnassessable)
		return e.finalize(claim, total, reasons, nil, &claimed), nil
	}

	s, r = quantityRisk(expected, claimed, e.cfg)
	total += s
	reasons = append(reasons, r...)

	return e.finalize(claim, total, reasons, &expected, &claimed), nil
}

func (e *Engine) finalize(claim model.ClaimInput, score int, reasons []string, expected, claimed *float64) *model.RiskResult {
	res := &model.RiskResult{
		RiskScore:            score,
		Decision:             Decide(score, e.cfg),
		ExpectedFertilizerKg: expected,
		ClaimedFertilizerKg:  claimed,
		Reasons:              reasons,
	}

	zap.L().Debug("risk: claim evaluated",
		zap.String("farmer_id", strings.TrimSpace(claim.FarmerID)),
		zap.String("dealer_id", strings.TrimSpace(claim.DealerID)),
		zap.Int("risk_score", res.RiskScore),
		zap.String("decision", string(res.Decision)),
		zap.Strings("reasons", res.Reasons),
	)

	return res
}
