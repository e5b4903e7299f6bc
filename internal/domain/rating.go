package domain

import "strings"

// RatingClass is the two-valued classification of a wallpaper's content rating.
type RatingClass string

const (
	// RatingNormal is any rating outside the restricted set, including absent.
	RatingNormal RatingClass = "normal"
	// RatingRestricted is a rating that belongs to the restricted set.
	RatingRestricted RatingClass = "restricted"
)

// RestrictedSet holds the rating values that classify as restricted.
// Membership checks are case-insensitive.
type RestrictedSet map[string]struct{}

// NewRestrictedSet builds a RestrictedSet from raw rating values.
func NewRestrictedSet(ratings ...string) RestrictedSet {
	set := make(RestrictedSet, len(ratings))
	for _, r := range ratings {
		set[strings.ToLower(r)] = struct{}{}
	}
	return set
}

// DefaultRestrictedRatings returns the workshop ratings served as restricted.
func DefaultRestrictedRatings() RestrictedSet {
	return NewRestrictedSet("Mature", "Questionable")
}

// Classify maps a raw descriptor rating to its RatingClass.
// An empty value is treated as "none" and classifies as normal.
func (s RestrictedSet) Classify(raw string) RatingClass {
	if raw == "" {
		return RatingNormal
	}
	if _, ok := s[strings.ToLower(raw)]; ok {
		return RatingRestricted
	}
	return RatingNormal
}
