package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreComboIsPure(t *testing.T) {
	top := Garment{ID: 1, Category: "Camisa", Color: "Blanco"}
	bottom := Garment{ID: 2, Category: "Pantalón chino", Color: "Azul Marino"}

	first, _ := ScoreCombo(top, bottom, 3)
	second, _ := ScoreCombo(top, bottom, 3)
	assert.Equal(t, first, second)
}

func TestScoreComboRegisterClash(t *testing.T) {
	hoodie := Garment{ID: 1, Category: "Sudadera", Color: "Gris"}
	dressPants := Garment{ID: 2, Category: "Pantalón de vestir", Color: "Negro"}

	_, trace := ScoreCombo(hoodie, dressPants, 3)
	require.Contains(t, ruleNames(trace), "sporty/formal register clash")

	clashHit := findHit(trace, "sporty/formal register clash")
	assert.Equal(t, -20, clashHit.Delta)
}

func TestScoreComboStyleMatch(t *testing.T) {
	top := Garment{ID: 1, Category: "Camiseta", Color: "Blanco", Style: "Casual"}
	bottom := Garment{ID: 2, Category: "Vaquero", Color: "Azul", Style: "casual"}

	_, trace := ScoreCombo(top, bottom, 3)
	assert.Contains(t, ruleNames(trace), "matching style")
}

func TestScoreComboHighFormalityAdjustments(t *testing.T) {
	shirt := Garment{ID: 1, Category: "Camisa", Color: "Blanco"}
	dressPants := Garment{ID: 2, Category: "Pantalón de pinzas", Color: "Negro"}
	jeans := Garment{ID: 3, Category: "Vaquero", Color: "Azul"}

	formal, _ := ScoreCombo(shirt, dressPants, 5)
	withJeans, _ := ScoreCombo(shirt, jeans, 5)
	assert.Greater(t, formal, withJeans)

	_, trace := ScoreCombo(shirt, jeans, 5)
	assert.Contains(t, ruleNames(trace), "casual piece at high formality")
}

func TestScoreComboLowFormalityAdjustments(t *testing.T) {
	tee := Garment{ID: 1, Category: "Camiseta", Color: "Blanco"}
	jeans := Garment{ID: 2, Category: "Vaquero", Color: "Azul"}

	_, trace := ScoreCombo(tee, jeans, 1)
	names := ruleNames(trace)
	assert.Contains(t, names, "casual piece at low formality")
	assert.NotContains(t, names, "formalwear at low formality")

	suit := Garment{ID: 3, Category: "Americana", Color: "Negro"}
	_, trace = ScoreCombo(suit, jeans, 1)
	assert.Contains(t, ruleNames(trace), "formalwear at low formality")
}

func TestScoreComboMonochromeFormalwearAllowed(t *testing.T) {
	top := Garment{ID: 1, Category: "Camisa", Color: "Negro"}
	bottom := Garment{ID: 2, Category: "Pantalón de pinzas", Color: "Negro"}

	_, casualTrace := ScoreCombo(top, bottom, 2)
	_, formalTrace := ScoreCombo(top, bottom, 5)
	assert.Contains(t, ruleNames(casualTrace), "same color without contrast")
	assert.NotContains(t, ruleNames(formalTrace), "same color without contrast")
}

func TestScoreAccessoryShoesFormality(t *testing.T) {
	top := Garment{ID: 1, Category: "Camisa", Color: "Blanco"}
	bottom := Garment{ID: 2, Category: "Pantalón de pinzas", Color: "Azul Marino"}

	oxford := Garment{ID: 3, Category: "Zapato Oxford", Color: "Negro"}
	sneaker := Garment{ID: 4, Category: "Zapatilla deportiva", Color: "Blanco"}

	oxfordScore, _ := ScoreAccessory(oxford, top, bottom, RoleShoes, 5)
	sneakerScore, _ := ScoreAccessory(sneaker, top, bottom, RoleShoes, 5)

	assert.Equal(t, 32, oxfordScore)
	assert.Equal(t, -3, sneakerScore)
	assert.Greater(t, oxfordScore, sneakerScore)
}

func TestScoreAccessoryColorEcho(t *testing.T) {
	top := Garment{ID: 1, Category: "Camiseta", Color: "Blanco"}
	bottom := Garment{ID: 2, Category: "Vaquero", Color: "Azul"}
	bag := Garment{ID: 3, Category: "Cazadora", Color: "Azul", Material: "Algodón"}

	score, trace := ScoreAccessory(bag, top, bottom, RoleOuterwear, 3)
	assert.Contains(t, ruleNames(trace), "color echoes the outfit")
	assert.Greater(t, score, 0)
}

func TestScoreAccessoryMaterialMatch(t *testing.T) {
	top := Garment{ID: 1, Category: "Camiseta", Color: "Blanco", Material: "Lino"}
	bottom := Garment{ID: 2, Category: "Pantalón", Color: "Beige"}
	jacket := Garment{ID: 3, Category: "Chaqueta", Color: "Beige", Material: "lino"}

	_, trace := ScoreAccessory(jacket, top, bottom, RoleOuterwear, 3)
	assert.Contains(t, ruleNames(trace), "matching material")
}

func TestScoreAccessoryRejectsBadRole(t *testing.T) {
	top := Garment{ID: 1, Category: "Camiseta", Color: "Blanco"}
	bottom := Garment{ID: 2, Category: "Vaquero", Color: "Azul"}
	item := Garment{ID: 3, Category: "Bolso", Color: "Negro"}

	assert.Panics(t, func() {
		ScoreAccessory(item, top, bottom, RoleAccessory, 3)
	})
}

func TestScoreToRatingSteps(t *testing.T) {
	cases := []struct {
		score  int
		rating int
	}{
		{-100, 1},
		{-1, 1},
		{0, 2},
		{14, 2},
		{15, 3},
		{24, 3},
		{25, 4},
		{34, 4},
		{35, 5},
		{44, 5},
		{45, 6},
		{54, 6},
		{55, 7},
		{64, 7},
		{65, 8},
		{74, 8},
		{75, 9},
		{89, 9},
		{90, 10},
		{150, 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.rating, ScoreToRating(tc.score), "score %d", tc.score)
	}
}

func TestScoreToRatingMonotonicAndBounded(t *testing.T) {
	prev := ScoreToRating(-200)
	for s := -199; s <= 200; s++ {
		r := ScoreToRating(s)
		assert.GreaterOrEqual(t, r, prev, "score %d", s)
		assert.GreaterOrEqual(t, r, 1)
		assert.LessOrEqual(t, r, 10)
		prev = r
	}
}

func findHit(trace []RuleHit, rule string) RuleHit {
	for _, hit := range trace {
		if hit.Rule == rule {
			return hit
		}
	}
	return RuleHit{}
}
