package outfit

// Tier buckets a single candidate garment against an already-fixed
// outfit for the swap-item flow.
type Tier string

const (
	TierRecommended    Tier = "recommended"
	TierAlternative    Tier = "alternative"
	TierNotRecommended Tier = "not_recommended"
)

// ColorimetryProfile holds the externally analyzed colors that favor or
// wash out a specific user. The engine only reads it.
type ColorimetryProfile struct {
	FavorColors []string
	AvoidColors []string
}

// SwapPreferences carries the taste inputs for the single-item tier:
// the user's explicit color lists and, when available, their colorimetry
// profile.
type SwapPreferences struct {
	FavoriteColors []string
	AvoidColors    []string
	Colorimetry    *ColorimetryProfile
}

type SwapAssessment struct {
	Score int
	Tier  Tier
	Trace []RuleHit
}

const (
	swapBaseScore          = 50
	tierRecommendedFloor   = 65
	tierAlternativeFloor   = 40
)

// AssessSwapItem scores one garment against the pieces of a fixed outfit
// with the reduced swap formula and buckets it into a tier. Unlike the
// generator it weighs personal taste heavily: this flow answers "should
// this user buy/wear this instead", not "does this combination work".
func AssessSwapItem(item Garment, outfitPieces []Garment, prefs SwapPreferences) SwapAssessment {
	var trace []RuleHit
	score := swapBaseScore
	hit := func(rule string, delta int) {
		score += delta
		trace = append(trace, RuleHit{Rule: rule, Delta: delta})
	}

	if prefs.Colorimetry != nil {
		if matchesAnyColor(item.Color, prefs.Colorimetry.FavorColors) {
			hit("colorimetry favors this color", 25)
		}
		if matchesAnyColor(item.Color, prefs.Colorimetry.AvoidColors) {
			hit("colorimetry advises against this color", -25)
		}
	}
	if matchesAnyColor(item.Color, prefs.FavoriteColors) {
		hit("favorite color", 20)
	}
	if matchesAnyColor(item.Color, prefs.AvoidColors) {
		hit("avoided color", -40)
	}

	vibrantPieces := 0
	for _, piece := range outfitPieces {
		if piece.ID == item.ID {
			continue
		}
		if IsClassicCombo(item.Color, piece.Color) {
			hit("classic combination with an outfit piece", 15)
		}
		if IsClashingCombo(item.Color, piece.Color) {
			hit("clashes with an outfit piece", -25)
		}
		if IsVibrant(piece.Color) {
			vibrantPieces++
		}
	}
	if IsNeutral(item.Color) {
		hit("neutral color", 10)
	}
	if IsVibrant(item.Color) && vibrantPieces >= 2 {
		hit("vibrant on an already vibrant outfit", -20)
	}

	tier := TierNotRecommended
	switch {
	case score >= tierRecommendedFloor:
		tier = TierRecommended
	case score >= tierAlternativeFloor:
		tier = TierAlternative
	}
	return SwapAssessment{Score: score, Tier: tier, Trace: trace}
}
