package pricing

import "github.com/akovacs/gameledger/internal/domain"

// ThresholdResolver merges a game's optional per-field overrides over the
// global defaults into a fully populated threshold set.
type ThresholdResolver struct {
	defaults domain.GlobalDefaults
}

// NewThresholdResolver creates a resolver around the global defaults.
func NewThresholdResolver(defaults domain.GlobalDefaults) *ThresholdResolver {
	return &ThresholdResolver{defaults: defaults}
}

// Resolve applies the override row on top of the defaults, field by field.
// A nil settings row (no override exists for the game) yields the defaults
// unchanged. The enabled flag has no global counterpart; absent an override
// it falls back to domain.DefaultAlertsEnabled.
func (r *ThresholdResolver) Resolve(settings *domain.AlertSettings) domain.AlertThresholds {
	resolved := domain.AlertThresholds{
		Enabled:           domain.DefaultAlertsEnabled,
		PreferredSource:   r.defaults.DefaultPriceSource,
		PreferredRegion:   r.defaults.DefaultRegion,
		DropThresholdPct:  r.defaults.DropThresholdPct,
		IncreasePct:       r.defaults.IncreasePct,
		MinPriceThreshold: r.defaults.MinPriceThreshold,
		MinValueChange:    r.defaults.MinValueChange,
	}
	if settings == nil {
		return resolved
	}
	if settings.Enabled != nil {
		resolved.Enabled = *settings.Enabled
	}
	if settings.PreferredSource != nil {
		resolved.PreferredSource = *settings.PreferredSource
	}
	if settings.PreferredRegion != nil {
		resolved.PreferredRegion = *settings.PreferredRegion
	}
	if settings.DropThresholdPct != nil {
		resolved.DropThresholdPct = *settings.DropThresholdPct
	}
	if settings.IncreasePct != nil {
		resolved.IncreasePct = *settings.IncreasePct
	}
	if settings.MinPriceThreshold != nil {
		resolved.MinPriceThreshold = *settings.MinPriceThreshold
	}
	if settings.MinValueChange != nil {
		resolved.MinValueChange = *settings.MinValueChange
	}
	return resolved
}
