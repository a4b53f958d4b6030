package domain

// DefaultAlertsEnabled is the baseline for the enabled flag when neither the
// game's settings row nor the global defaults specify one. Disabled by
// default: automatic scraping of third-party price sites is opt-in.
const DefaultAlertsEnabled = false

// AlertSettings is the optional per-game override row. Pointer fields are
// nil when the game defers to the global default for that field.
type AlertSettings struct {
	GameID            string
	Enabled           *bool
	PreferredSource   *string
	PreferredRegion   *string
	DropThresholdPct  *float64
	IncreasePct       *float64
	MinPriceThreshold *float64
	MinValueChange    *float64
}

// AlertThresholds is a fully resolved threshold set, every field populated
// from the game override or the global defaults.
type AlertThresholds struct {
	Enabled           bool
	PreferredSource   string
	PreferredRegion   string
	DropThresholdPct  float64
	IncreasePct       float64
	MinPriceThreshold float64
	MinValueChange    float64
}

// GlobalDefaults is the single global threshold record plus the sweep-wide
// enable flag, sourced from configuration.
type GlobalDefaults struct {
	AutoScrapingEnabled bool
	DefaultPriceSource  string
	DefaultRegion       string
	DropThresholdPct    float64
	IncreasePct         float64
	MinPriceThreshold   float64
	MinValueChange      float64
}
