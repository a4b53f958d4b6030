package domain

import "time"

// Game is a catalogued item in the collection. The reconciliation engine
// reads id, title, platforms, and the cached current price; it writes only
// CurrentPrice, and only through a committed decision.
type Game struct {
	ID           string
	Title        string
	Platforms    []string
	Genres       []string
	Publishers   []string
	ReleaseDate  *time.Time
	Region       string
	CurrentPrice *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FirstPlatform returns the leading platform name, used as the platform hint
// when building scrape queries. Empty string when the game has no platforms.
func (g Game) FirstPlatform() string {
	if len(g.Platforms) == 0 {
		return ""
	}
	return g.Platforms[0]
}
