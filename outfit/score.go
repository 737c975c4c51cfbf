package outfit

// RuleHit records one fired scoring rule and its contribution. The trace
// exists for explainability only; nothing branches on it.
type RuleHit struct {
	Rule  string
	Delta int
}

var sportyKeywords = []string{"sudadera", "hoodie", "jogger", "chandal", "deportiv"}
var formalRegisterKeywords = []string{"camisa", "blazer", "americana", "traje", "vestir"}
var denimKeywords = []string{"vaquero", "jean", "denim"}

func isSporty(g Garment) bool {
	if normalize(g.Style) == "deportivo" {
		return true
	}
	return containsAny(g.roleLabel(), sportyKeywords)
}

func isDenim(g Garment) bool {
	return containsAny(g.roleLabel(), denimKeywords) || matchesAnyColor(g.Color, []string{"denim", "vaquero"})
}

func isFormalRegister(g Garment) bool {
	if isDenim(g) {
		return false
	}
	switch normalize(g.Style) {
	case "formal", "elegante", "business":
		return true
	}
	if containsAny(g.roleLabel(), formalRegisterKeywords) {
		return true
	}
	// Non-denim trousers read as formal register.
	return containsAny(g.roleLabel(), []string{"pantalon"})
}

var formalPieceKeywords = []string{"camisa", "blusa", "vestido", "americana", "blazer", "falda", "traje"}
var casualPieceKeywords = []string{"vaquero", "jean", "denim", "camiseta", "sudadera", "hoodie", "chandal", "bermuda", "short"}

// garmentFormalityAdjust applies the formality-target rules once per
// garment, not pairwise.
func garmentFormalityAdjust(g Garment, formality int) (int, []RuleHit) {
	var trace []RuleHit
	score := 0
	hit := func(rule string, delta int) {
		score += delta
		trace = append(trace, RuleHit{Rule: rule, Delta: delta})
	}
	label := g.roleLabel()
	switch {
	case formality >= 4:
		if containsAny(label, formalPieceKeywords) || (containsAny(label, []string{"pantalon"}) && !isDenim(g)) {
			hit("formal piece at high formality", 10)
		}
		if IsNeutral(g.Color) || IsDark(g.Color) {
			hit("neutral/dark color at high formality", 6)
		}
		if containsAny(label, casualPieceKeywords) {
			hit("casual piece at high formality", -12)
		}
		if IsVibrant(g.Color) {
			hit("vibrant color at high formality", -8)
		}
	case formality <= 2:
		if containsAny(label, []string{"camiseta", "polo", "vaquero", "jean"}) {
			hit("casual piece at low formality", 5)
		}
		if containsAny(label, []string{"traje", "americana"}) ||
			(containsAny(label, []string{"camisa"}) && containsAny(label, []string{"vestir", "formal"})) {
			hit("formalwear at low formality", -10)
		}
	default: // smart casual
		if containsAny(label, []string{"camisa", "polo", "chino"}) {
			hit("smart casual staple", 5)
		}
		if containsAny(label, []string{"sudadera", "chandal"}) {
			hit("too sporty for smart casual", -6)
		}
		if IsNeutral(g.Color) {
			hit("neutral color at smart casual", 4)
		}
	}
	return score, trace
}

// ScoreCombo sums every applicable color and style/formality rule for a
// top/bottom pair into one signed accumulator. The returned trace lists
// each fired rule with its delta.
func ScoreCombo(top, bottom Garment, formality int) (int, []RuleHit) {
	neutralOrDark := func(c string) bool { return IsNeutral(c) || IsDark(c) }
	// Monochrome formalwear is deliberate, not lazy: at high formality a
	// same-color neutral/dark pair skips the same-color penalty.
	allowMonochrome := formality >= 4 && neutralOrDark(top.Color) && neutralOrDark(bottom.Color)

	score, trace := colorScore(top.Color, bottom.Color, allowMonochrome)
	hit := func(rule string, delta int) {
		score += delta
		trace = append(trace, RuleHit{Rule: rule, Delta: delta})
	}

	if top.Style != "" && normalize(top.Style) == normalize(bottom.Style) {
		hit("matching style", 8)
	}
	if (isSporty(top) && isFormalRegister(bottom)) || (isFormalRegister(top) && isSporty(bottom)) {
		hit("sporty/formal register clash", -20)
	}
	if formality == 3 && IsVibrant(top.Color) && IsVibrant(bottom.Color) && !colorMatches(top.Color, bottom.Color) {
		hit("two vibrants at smart casual", -6)
	}

	for _, g := range []Garment{top, bottom} {
		adj, hits := garmentFormalityAdjust(g, formality)
		score += adj
		trace = append(trace, hits...)
	}
	return score, trace
}

var formalOuterwearKeywords = []string{"blazer", "americana", "abrigo", "gabardina", "trench"}
var casualOuterwearKeywords = []string{"sudadera", "vaquera", "denim", "anorak", "plumifero"}

// ScoreAccessory scores shoes or outerwear independently against an
// established top/bottom pair with a reduced rule set. Calling it for any
// other role is a caller bug and panics.
func ScoreAccessory(item, top, bottom Garment, role Role, formality int) (int, []RuleHit) {
	if role != RoleShoes && role != RoleOuterwear {
		panic("outfit: ScoreAccessory role must be shoes or outerwear")
	}
	var trace []RuleHit
	score := 0
	hit := func(rule string, delta int) {
		score += delta
		trace = append(trace, RuleHit{Rule: rule, Delta: delta})
	}

	matchesTop := colorMatches(item.Color, top.Color) ||
		(item.SecondaryColor != "" && colorMatches(item.SecondaryColor, top.Color))
	matchesBottom := colorMatches(item.Color, bottom.Color) ||
		(item.SecondaryColor != "" && colorMatches(item.SecondaryColor, bottom.Color))
	if matchesTop || matchesBottom {
		hit("color echoes the outfit", 15)
	}
	if IsNeutral(item.Color) {
		hit("neutral accent", 12)
	}
	if IsDark(item.Color) && IsLight(top.Color) && IsLight(bottom.Color) {
		hit("dark accent grounds a light outfit", 10)
	}

	label := item.roleLabel()
	if role == RoleShoes {
		switch {
		case formality >= 4:
			if ShoeFormality(label) == BucketFormal {
				hit("formal shoes at high formality", 20)
			}
			if containsAny(label, []string{"zapatilla", "sneaker", "deportiv"}) {
				hit("sneakers at high formality", -30)
			}
			if containsAny(label, []string{"sandalia", "chancla"}) {
				hit("sandals at high formality", -25)
			}
		case formality <= 2:
			if ShoeFormality(label) == BucketFormal {
				hit("formal shoes at low formality", -10)
			}
		}
	} else if formality >= 4 {
		if containsAny(label, formalOuterwearKeywords) {
			hit("formal outerwear at high formality", 15)
		}
		if containsAny(label, casualOuterwearKeywords) {
			hit("casual outerwear at high formality", -15)
		}
	}

	clash := IsClashingCombo(item.Color, top.Color) || IsClashingCombo(item.Color, bottom.Color)
	vibrantPile := IsVibrant(item.Color) &&
		((IsVibrant(top.Color) && !matchesTop) || (IsVibrant(bottom.Color) && !matchesBottom))
	if clash || vibrantPile {
		hit("vibrant clash with the outfit", -10)
	}

	if item.Material != "" &&
		(normalize(item.Material) == normalize(top.Material) || normalize(item.Material) == normalize(bottom.Material)) {
		hit("matching material", 5)
	}
	return score, trace
}

// ScoreToRating maps a raw score onto the 1..10 scale shown to users.
// The steps are a fixed contract consumed by history and UI features.
func ScoreToRating(score int) int {
	switch {
	case score < 0:
		return 1
	case score < 15:
		return 2
	case score < 25:
		return 3
	case score < 35:
		return 4
	case score < 45:
		return 5
	case score < 55:
		return 6
	case score < 65:
		return 7
	case score < 75:
		return 8
	case score < 90:
		return 9
	default:
		return 10
	}
}
