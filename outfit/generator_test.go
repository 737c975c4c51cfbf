package outfit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCloset() []Garment {
	return []Garment{
		{ID: 1, Name: "Camisa blanca", Category: "Camisa", Color: "Blanco"},
		{ID: 2, Name: "Jersey azul", Category: "Jersey", Color: "Azul Marino"},
		{ID: 3, Name: "Camiseta negra", Category: "Camiseta", Color: "Negro"},
		{ID: 4, Name: "Chino beige", Category: "Pantalón chino", Color: "Beige"},
		{ID: 5, Name: "Vaquero azul", Category: "Vaquero", Color: "Azul"},
		{ID: 6, Name: "Bermuda gris", Category: "Bermuda", Color: "Gris"},
		{ID: 7, Name: "Oxford negro", Category: "Zapato Oxford", Color: "Negro"},
		{ID: 8, Name: "Zapatilla blanca", Category: "Zapatilla deportiva", Color: "Blanco"},
		{ID: 9, Name: "Abrigo camel", Category: "Abrigo", Color: "Camel"},
		{ID: 10, Name: "Vestido rojo", Category: "Vestido", Color: "Rojo"},
		{ID: 11, Name: "Cosa rara", Category: "Cosa rara", Color: "Verde"},
	}
}

func seededGenerator(cfg Config) *Generator {
	return NewGenerator(cfg, rand.New(rand.NewSource(42)))
}

func TestGenerateEmptyCloset(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	outfits, diag := gen.Generate(nil, Constraints{Formality: 3}, 5)
	assert.Empty(t, outfits)
	assert.NotEmpty(t, diag.EmptyReason)
}

func TestGenerateMissingRole(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	onlyTops := []Garment{
		{ID: 1, Category: "Camisa", Color: "Blanco"},
		{ID: 2, Category: "Camiseta", Color: "Negro"},
	}
	outfits, diag := gen.Generate(onlyTops, Constraints{Formality: 3}, 5)
	assert.Empty(t, outfits)
	assert.Contains(t, diag.EmptyReason, "bottoms")
}

func TestGenerateFilterCorrectness(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	cons := Constraints{TopLength: LengthLong, BottomLength: LengthLong, Formality: 3}
	outfits, _ := gen.Generate(testCloset(), cons, 10)
	require.NotEmpty(t, outfits)

	for _, o := range outfits {
		require.NotNil(t, o.Top)
		require.NotNil(t, o.Bottom)
		assert.Equal(t, RoleTop, ClassifyRole(o.Top.Category))
		assert.Equal(t, RoleBottom, ClassifyRole(o.Bottom.Category))
		assert.Equal(t, LengthLong, ClassifyLength(o.Top.Category, RoleTop))
		assert.Equal(t, LengthLong, ClassifyLength(o.Bottom.Category, RoleBottom))
		if o.Shoes != nil {
			assert.Equal(t, RoleShoes, ClassifyRole(o.Shoes.Category))
		}
		if o.Outerwear != nil {
			assert.Equal(t, RoleOuterwear, ClassifyRole(o.Outerwear.Category))
		}
		assert.GreaterOrEqual(t, o.Rating, 1)
		assert.LessOrEqual(t, o.Rating, 10)
		assert.Equal(t, ScoreToRating(o.Score), o.Rating)
	}
}

func TestGenerateDeduplicatesAndCaps(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	outfits, _ := gen.Generate(testCloset(), Constraints{Formality: 3}, 3)
	assert.LessOrEqual(t, len(outfits), 3)

	seen := map[string]bool{}
	for _, o := range outfits {
		key := o.Key()
		assert.False(t, seen[key], "duplicate outfit key %s", key)
		seen[key] = true
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	cons := Constraints{Formality: 3}
	first, _ := seededGenerator(DefaultConfig()).Generate(testCloset(), cons, 5)
	second, _ := seededGenerator(DefaultConfig()).Generate(testCloset(), cons, 5)
	assert.Equal(t, first, second)
}

func TestGenerateHighFormalityShoeFilter(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	outfits, diag := gen.Generate(testCloset(), Constraints{Formality: 5}, 10)

	for _, o := range outfits {
		if o.Shoes != nil {
			assert.Equal(t, BucketFormal, ShoeFormality(o.Shoes.Category))
		}
	}
	assert.True(t, hasExclusion(diag, 8), "sneaker should be excluded at formality 5")
}

func TestGenerateLowFormalityExcludesOxford(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	_, diag := gen.Generate(testCloset(), Constraints{Formality: 1}, 10)
	assert.True(t, hasExclusion(diag, 7), "oxford should be excluded at formality 1")
}

func TestGenerateDiagnosticsForUnusableGarments(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	_, diag := gen.Generate(testCloset(), Constraints{Formality: 3}, 5)

	assert.True(t, hasExclusion(diag, 10), "dress is excluded from top/bottom assembly")
	assert.True(t, hasExclusion(diag, 11), "unclassifiable garment is surfaced")
}

func TestGenerateThresholdRejectsClashingCloset(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	closet := []Garment{
		{ID: 1, Category: "Camiseta", Color: "Rojo"},
		{ID: 2, Category: "Jogger", Color: "Naranja"},
	}
	outfits, diag := gen.Generate(closet, Constraints{Formality: 3}, 5)
	assert.Empty(t, outfits)
	assert.Equal(t, "no top/bottom combination reached the minimum quality score", diag.EmptyReason)
}

func TestGenerateFormalityFromEventType(t *testing.T) {
	gen := seededGenerator(DefaultConfig())
	outfits, _ := gen.Generate(testCloset(), Constraints{EventType: "boda"}, 10)
	for _, o := range outfits {
		if o.Shoes != nil {
			assert.Equal(t, BucketFormal, ShoeFormality(o.Shoes.Category))
		}
	}
}

func TestGenerateMissingColorPolicy(t *testing.T) {
	closet := []Garment{
		{ID: 1, Category: "Camisa", Color: "Azul Marino"},
		{ID: 2, Category: "Pantalón", Color: ""},
	}
	cons := Constraints{Formality: 3}
	cfg := Config{MinComboScore: 20}

	outfits, _ := seededGenerator(cfg).Generate(closet, cons, 5)
	assert.Empty(t, outfits, "unknown color should not collect neutral bonuses by default")

	cfg.TreatMissingColorAsNeutral = true
	outfits, _ = seededGenerator(cfg).Generate(closet, cons, 5)
	assert.NotEmpty(t, outfits)
}

func TestGenerateAvoidColorsLowerRanking(t *testing.T) {
	closet := []Garment{
		{ID: 1, Category: "Camisa", Color: "Blanco"},
		{ID: 2, Category: "Vaquero", Color: "Azul"},
	}
	plain, _ := ScoreCombo(closet[0], closet[1], 3)

	gen := seededGenerator(DefaultConfig())
	outfits, _ := gen.Generate(closet, Constraints{Formality: 3, AvoidColors: []string{"blanco"}}, 1)
	require.Len(t, outfits, 1)
	assert.Equal(t, plain-15, outfits[0].Score)
}

func hasExclusion(diag Diagnostics, id uint) bool {
	for _, e := range diag.Excluded {
		if e.ID == id {
			return true
		}
	}
	return false
}
