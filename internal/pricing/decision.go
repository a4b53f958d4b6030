package pricing

import (
	"math"

	"github.com/akovacs/gameledger/internal/domain"
)

// Decision is the outcome of the auto-update rule for one candidate price.
type Decision struct {
	Commit    bool
	ChangePct float64
	ChangeAbs float64
	Reason    string
}

// Decision reasons.
const (
	ReasonNoBaseline     = "no_baseline"
	ReasonDrop           = "drop"
	ReasonRise           = "rise"
	ReasonChangeInBand   = "change_within_band"
	ReasonBelowMinPrice  = "below_min_price"
	ReasonChangeTooSmall = "change_too_small"
)

// Decide applies the auto-update rule to a candidate price against the
// game's current (baseline) price:
//
//   - no baseline (absent or non-positive): always commit, there is
//     nothing meaningful to compare against;
//   - the percent change must clear the drop or rise threshold;
//   - the new price must be at least the minimum price threshold;
//   - the absolute change must be at least the minimum value change.
//
// All three gates must pass for a commit. A drop threshold of 10 means a
// 10% fall triggers, so the comparison is changePct <= -DropThresholdPct.
func Decide(oldPrice *float64, newPrice float64, th domain.AlertThresholds) Decision {
	if oldPrice == nil || *oldPrice <= 0 {
		return Decision{Commit: true, Reason: ReasonNoBaseline}
	}

	changeAbs := newPrice - *oldPrice
	changePct := changeAbs / *oldPrice * 100

	d := Decision{ChangePct: changePct, ChangeAbs: changeAbs}

	dropped := changePct <= -th.DropThresholdPct
	rose := changePct >= th.IncreasePct
	if !dropped && !rose {
		d.Reason = ReasonChangeInBand
		return d
	}
	if newPrice < th.MinPriceThreshold {
		d.Reason = ReasonBelowMinPrice
		return d
	}
	if math.Abs(changeAbs) < th.MinValueChange {
		d.Reason = ReasonChangeTooSmall
		return d
	}

	d.Commit = true
	if dropped {
		d.Reason = ReasonDrop
	} else {
		d.Reason = ReasonRise
	}
	return d
}
