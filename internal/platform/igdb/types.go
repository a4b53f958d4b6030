package igdb

import "github.com/akovacs/gameledger/internal/domain"

// apiGame is the wire shape of one game record from the /v4/games endpoint,
// limited to the fields the search requests.
type apiGame struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Summary          string     `json:"summary"`
	Cover            *apiCover  `json:"cover"`
	FirstReleaseDate *int64     `json:"first_release_date"`
	Platforms        []apiNamed `json:"platforms"`
	Genres           []apiNamed `json:"genres"`
	InvolvedCompanies []struct {
		Company apiNamed `json:"company"`
	} `json:"involved_companies"`
	Franchises []apiNamed `json:"franchises"`
}

type apiCover struct {
	URL string `json:"url"`
}

type apiNamed struct {
	Name string `json:"name"`
}

func names(in []apiNamed) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n.Name != "" {
			out = append(out, n.Name)
		}
	}
	return out
}

func (g apiGame) toCandidate() domain.CandidateMatch {
	c := domain.CandidateMatch{
		ExternalID:       g.ID,
		CanonicalName:    g.Name,
		Summary:          g.Summary,
		Platforms:        names(g.Platforms),
		Genres:           names(g.Genres),
		Franchises:       names(g.Franchises),
		FirstReleaseEpoch: g.FirstReleaseDate,
	}
	if g.Cover != nil {
		c.CoverURL = g.Cover.URL
	}
	for _, ic := range g.InvolvedCompanies {
		if ic.Company.Name != "" {
			c.Companies = append(c.Companies, ic.Company.Name)
		}
	}
	return c
}
