package outfit

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Constraints narrow the search for one Generate call. Formality runs
// 1..5 (muy casual .. muy formal); when unset it is derived from the
// event type. Colorimetry is carried for the swap tier and is not
// consulted while generating.
type Constraints struct {
	TopLength      LengthClass
	BottomLength   LengthClass
	Formality      int
	FavoriteColors []string
	AvoidColors    []string
	EventType      string
	Colorimetry    *ColorimetryProfile
}

// Config tunes the generator. The zero value of individual fields falls
// back to the defaults below.
type Config struct {
	// MinComboScore is the quality floor a top/bottom pair must clear.
	MinComboScore int
	// WorkingSetSize caps how many surviving combos are dressed with
	// shoes and outerwear after the shuffle.
	WorkingSetSize int
	// TreatMissingColorAsNeutral substitutes a neutral stand-in for an
	// empty color instead of scoring it as unknown.
	TreatMissingColorAsNeutral bool
}

const (
	defaultMinComboScore  = 30
	defaultWorkingSetSize = 20
)

func DefaultConfig() Config {
	return Config{MinComboScore: defaultMinComboScore, WorkingSetSize: defaultWorkingSetSize}
}

// Diagnostics explains why a Generate call returned less than expected.
// An empty result with a reason is a valid terminal state, not an error.
type Diagnostics struct {
	Excluded    []ExcludedGarment
	EmptyReason string
}

type ExcludedGarment struct {
	ID     uint
	Name   string
	Reason string
}

// Generator runs the constrained search over a closet snapshot. It keeps
// no state across calls; the only mutable piece is the injected random
// source, so a seeded source makes runs reproducible in tests.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config, rng *rand.Rand) *Generator {
	if cfg.MinComboScore == 0 {
		cfg.MinComboScore = defaultMinComboScore
	}
	if cfg.WorkingSetSize <= 0 {
		cfg.WorkingSetSize = defaultWorkingSetSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{cfg: cfg, rng: rng}
}

var eventFormality = map[string]int{
	"boda":      5,
	"trabajo":   4,
	"cena":      3,
	"diario":    2,
	"deporte":   1,
	"wedding":   5,
	"work":      4,
	"dinner":    3,
	"casual":    2,
	"sport":     1,
}

func (cons Constraints) formality() int {
	f := cons.Formality
	if f < 1 {
		if ef, ok := eventFormality[normalize(cons.EventType)]; ok {
			f = ef
		} else {
			f = 3
		}
	}
	if f > 5 {
		f = 5
	}
	return f
}

// preferenceAdjust applies the user's explicit favorite/avoid color lists
// per garment while the combo score accumulates. Lower weight than the
// swap tier uses so taste nudges ranking without drowning the color rules.
func preferenceAdjust(g Garment, cons Constraints) (int, []RuleHit) {
	var trace []RuleHit
	score := 0
	if matchesAnyColor(g.Color, cons.FavoriteColors) {
		score += 5
		trace = append(trace, RuleHit{Rule: "favorite color", Delta: 5})
	}
	if matchesAnyColor(g.Color, cons.AvoidColors) {
		score -= 15
		trace = append(trace, RuleHit{Rule: "avoided color", Delta: -15})
	}
	return score, trace
}

type scoredCombo struct {
	top    Garment
	bottom Garment
	score  int
	trace  []RuleHit
}

type scoredAccessory struct {
	garment Garment
	score   int
	trace   []RuleHit
}

// Generate filters the closet by role and length, scores the top/bottom
// cross-product, dresses the survivors with shoes and outerwear, and
// returns up to maxResults deduplicated outfits. The result order is the
// acceptance order, deliberately not sorted: diversity over strict
// ranking.
func (gen *Generator) Generate(closet []Garment, cons Constraints, maxResults int) ([]CandidateOutfit, Diagnostics) {
	var diag Diagnostics
	formality := cons.formality()

	var tops, bottoms, shoes, outerwear []Garment
	exclude := func(g Garment, reason string) {
		diag.Excluded = append(diag.Excluded, ExcludedGarment{ID: g.ID, Name: g.Name, Reason: reason})
	}

	for _, g := range closet {
		if gen.cfg.TreatMissingColorAsNeutral && normalize(g.Color) == "" {
			g.Color = missingColorStandIn
		}
		role := ClassifyRole(g.roleLabel())
		switch role {
		case RoleTop:
			if !lengthAllowed(g, role, cons.TopLength) {
				exclude(g, fmt.Sprintf("sleeve length does not match the requested %s", cons.TopLength))
				continue
			}
			tops = append(tops, g)
		case RoleBottom:
			if !lengthAllowed(g, role, cons.BottomLength) {
				exclude(g, fmt.Sprintf("leg length does not match the requested %s", cons.BottomLength))
				continue
			}
			bottoms = append(bottoms, g)
		case RoleShoes:
			if reason, ok := shoeAllowed(g, formality); !ok {
				exclude(g, reason)
				continue
			}
			shoes = append(shoes, g)
		case RoleOuterwear:
			outerwear = append(outerwear, g)
		case RoleDress:
			exclude(g, "dresses are not combined into top/bottom outfits")
		case RoleAccessory:
			exclude(g, "accessories are not part of outfit assembly")
		default:
			exclude(g, "category matched no known role")
		}
	}

	if len(tops) == 0 {
		diag.EmptyReason = emptyRoleReason("tops", cons.TopLength)
		return nil, diag
	}
	if len(bottoms) == 0 {
		diag.EmptyReason = emptyRoleReason("bottoms", cons.BottomLength)
		return nil, diag
	}

	var combos []scoredCombo
	for _, top := range tops {
		for _, bottom := range bottoms {
			score, trace := ScoreCombo(top, bottom, formality)
			for _, g := range []Garment{top, bottom} {
				adj, hits := preferenceAdjust(g, cons)
				score += adj
				trace = append(trace, hits...)
			}
			if score >= gen.cfg.MinComboScore {
				combos = append(combos, scoredCombo{top: top, bottom: bottom, score: score, trace: trace})
			}
		}
	}
	if len(combos) == 0 {
		diag.EmptyReason = "no top/bottom combination reached the minimum quality score"
		return nil, diag
	}

	gen.rng.Shuffle(len(combos), func(i, j int) {
		combos[i], combos[j] = combos[j], combos[i]
	})
	if len(combos) > gen.cfg.WorkingSetSize {
		combos = combos[:gen.cfg.WorkingSetSize]
	}

	seen := make(map[string]bool)
	var outfits []CandidateOutfit
	for _, combo := range combos {
		outfit := CandidateOutfit{
			Top:    cloneGarment(combo.top),
			Bottom: cloneGarment(combo.bottom),
			Score:  combo.score,
			Trace:  combo.trace,
		}

		if picked := gen.pickAccessory(shoes, combo, RoleShoes, formality); picked != nil {
			outfit.Shoes = cloneGarment(picked.garment)
			outfit.Score += picked.score
			outfit.Trace = append(outfit.Trace, picked.trace...)
		}
		if gen.wantsOuterwear(combo.top, formality) {
			if picked := gen.pickAccessory(outerwear, combo, RoleOuterwear, formality); picked != nil {
				outfit.Outerwear = cloneGarment(picked.garment)
				outfit.Score += picked.score
				outfit.Trace = append(outfit.Trace, picked.trace...)
			}
		}

		key := outfit.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		outfit.Rating = ScoreToRating(outfit.Score)
		outfits = append(outfits, outfit)
		if maxResults > 0 && len(outfits) >= maxResults {
			break
		}
	}
	return outfits, diag
}

func lengthAllowed(g Garment, role Role, want LengthClass) bool {
	if want == "" || want == LengthUnknown {
		return true
	}
	return ClassifyLength(g.roleLabel(), role) == want
}

func shoeAllowed(g Garment, formality int) (string, bool) {
	label := g.roleLabel()
	bucket := ShoeFormality(label)
	if formality >= 4 && bucket != BucketFormal {
		return "too casual for the requested formality", false
	}
	if formality <= 2 && bucket == BucketFormal &&
		containsAny(label, []string{"oxford", "formal", "tacon alto"}) {
		return "too formal for the requested formality", false
	}
	return "", true
}

func emptyRoleReason(role string, length LengthClass) string {
	if length == "" || length == LengthUnknown {
		return fmt.Sprintf("no eligible %s in the closet", role)
	}
	return fmt.Sprintf("no %s with %s length in the closet", role, length)
}

// pickAccessory sorts candidates by their score against the pair and
// picks randomly among the top three, so near-ties do not always resolve
// to the same item.
func (gen *Generator) pickAccessory(candidates []Garment, combo scoredCombo, role Role, formality int) *scoredAccessory {
	if len(candidates) == 0 {
		return nil
	}
	scored := make([]scoredAccessory, 0, len(candidates))
	for _, g := range candidates {
		score, trace := ScoreAccessory(g, combo.top, combo.bottom, role, formality)
		scored = append(scored, scoredAccessory{garment: g, score: score, trace: trace})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].garment.ID < scored[j].garment.ID
	})
	pool := 3
	if len(scored) < pool {
		pool = len(scored)
	}
	pick := scored[gen.rng.Intn(pool)]
	return &pick
}

// wantsOuterwear decides probabilistically whether to layer at all.
// Long-sleeved tops and dressier targets raise the odds over the flat
// baseline.
func (gen *Generator) wantsOuterwear(top Garment, formality int) bool {
	p := 0.35
	if ClassifyLength(top.roleLabel(), RoleTop) == LengthLong {
		p += 0.25
	}
	if formality >= 3 {
		p += 0.2
	}
	return gen.rng.Float64() < p
}

func cloneGarment(g Garment) *Garment {
	clone := g
	return &clone
}
