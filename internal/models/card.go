package models

import "strings"

// Variant selects one of the two built-in preview layouts.
type Variant string

const (
	VariantStandard Variant = "standard"
	VariantCivic    Variant = "civic"
)

// CivicLayoutPrefix marks layout names of the civic (politician / public
// servant) card family, e.g. "civic", "civic-dark".
const CivicLayoutPrefix = "civic"

// VariantForLayout derives the variant from a card's layout-name field.
func VariantForLayout(layout string) Variant {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(layout)), CivicLayoutPrefix) {
		return VariantCivic
	}
	return VariantStandard
}

// CardRecord is the flat, read-only row returned by the card data service.
// Optional columns are nil when NULL.
type CardRecord struct {
	ID           string  `json:"id" db:"id"`
	Slug         string  `json:"slug" db:"slug"`
	Name         *string `json:"name,omitempty" db:"full_name"`
	Title        *string `json:"title,omitempty" db:"title"`
	Company      *string `json:"company,omitempty" db:"company"`
	Location     *string `json:"location,omitempty" db:"location"`
	PhotoURL     *string `json:"photoUrl,omitempty" db:"photo_url"`
	Layout       *string `json:"layout,omitempty" db:"layout"`
	BallotNumber *string `json:"ballotNumber,omitempty" db:"ballot_number"`
	Party        *string `json:"party,omitempty" db:"party"`
	Office       *string `json:"office,omitempty" db:"office"`
	Region       *string `json:"region,omitempty" db:"region"`
	ElectionYear *string `json:"electionYear,omitempty" db:"election_year"`
	Slogan       *string `json:"slogan,omitempty" db:"slogan"`
}

// CardSnapshot is the immutable per-request projection of a card used to
// build a preview. Blank strings mean the field is absent.
type CardSnapshot struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
	Layout   string `json:"layout,omitempty"`

	BallotNumber string `json:"ballotNumber,omitempty"`
	Party        string `json:"party,omitempty"`
	Office       string `json:"office,omitempty"`
	Region       string `json:"region,omitempty"`
	ElectionYear string `json:"electionYear,omitempty"`
	Slogan       string `json:"slogan,omitempty"`

	EngagementCount int64 `json:"engagementCount"`
}

// NewSnapshot projects a record into a snapshot, trimming every field.
func NewSnapshot(rec CardRecord, engagement int64) CardSnapshot {
	if engagement < 0 {
		engagement = 0
	}
	return CardSnapshot{
		ID:              rec.ID,
		Slug:            rec.Slug,
		Name:            deref(rec.Name),
		Title:           deref(rec.Title),
		Company:         deref(rec.Company),
		Location:        deref(rec.Location),
		PhotoURL:        deref(rec.PhotoURL),
		Layout:          deref(rec.Layout),
		BallotNumber:    deref(rec.BallotNumber),
		Party:           deref(rec.Party),
		Office:          deref(rec.Office),
		Region:          deref(rec.Region),
		ElectionYear:    deref(rec.ElectionYear),
		Slogan:          deref(rec.Slogan),
		EngagementCount: engagement,
	}
}

// Variant reports which layout the snapshot renders with.
func (c CardSnapshot) Variant() Variant {
	return VariantForLayout(c.Layout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// StringPtr is a convenience for building records in tests and tools.
func StringPtr(s string) *string {
	return &s
}
