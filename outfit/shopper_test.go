package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessSwapItemRecommended(t *testing.T) {
	item := Garment{ID: 1, Category: "Camisa", Color: "Blanco"}
	pieces := []Garment{
		{ID: 2, Category: "Pantalón", Color: "Negro"},
		{ID: 3, Category: "Abrigo", Color: "Azul Marino"},
	}

	got := AssessSwapItem(item, pieces, SwapPreferences{})
	// base 50, two classic combos, neutral bonus.
	assert.Equal(t, 90, got.Score)
	assert.Equal(t, TierRecommended, got.Tier)
}

func TestAssessSwapItemNotRecommended(t *testing.T) {
	item := Garment{ID: 1, Category: "Camiseta", Color: "Rojo"}
	pieces := []Garment{
		{ID: 2, Category: "Pantalón", Color: "Naranja"},
	}
	prefs := SwapPreferences{AvoidColors: []string{"rojo"}}

	got := AssessSwapItem(item, pieces, prefs)
	// base 50, avoided color -40, clash -25.
	assert.Equal(t, -15, got.Score)
	assert.Equal(t, TierNotRecommended, got.Tier)
}

func TestAssessSwapItemAlternative(t *testing.T) {
	item := Garment{ID: 1, Category: "Camiseta", Color: "Verde"}
	pieces := []Garment{
		{ID: 2, Category: "Pantalón", Color: "Gris"},
	}

	got := AssessSwapItem(item, pieces, SwapPreferences{})
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, TierAlternative, got.Tier)
}

func TestAssessSwapItemColorimetry(t *testing.T) {
	item := Garment{ID: 1, Category: "Blusa", Color: "Rosa"}
	pieces := []Garment{
		{ID: 2, Category: "Pantalón", Color: "Gris"},
	}

	favored := AssessSwapItem(item, pieces, SwapPreferences{
		Colorimetry: &ColorimetryProfile{FavorColors: []string{"rosa"}},
	})
	// base 50, colorimetry +25, classic gris+rosa +15.
	assert.Equal(t, 90, favored.Score)
	assert.Equal(t, TierRecommended, favored.Tier)

	avoided := AssessSwapItem(item, pieces, SwapPreferences{
		Colorimetry: &ColorimetryProfile{AvoidColors: []string{"rosa"}},
	})
	assert.Equal(t, 40, avoided.Score)
	assert.Equal(t, TierAlternative, avoided.Tier)
}

func TestAssessSwapItemVibrantPile(t *testing.T) {
	item := Garment{ID: 1, Category: "Camiseta", Color: "Amarillo"}
	pieces := []Garment{
		{ID: 2, Category: "Pantalón", Color: "Rosa"},
		{ID: 3, Category: "Abrigo", Color: "Morado"},
	}

	got := AssessSwapItem(item, pieces, SwapPreferences{})
	assert.Contains(t, ruleNames(got.Trace), "vibrant on an already vibrant outfit")
	assert.Equal(t, TierNotRecommended, got.Tier)
}

func TestAssessSwapItemIgnoresItself(t *testing.T) {
	item := Garment{ID: 1, Category: "Camisa", Color: "Blanco"}
	pieces := []Garment{
		item,
		{ID: 2, Category: "Pantalón", Color: "Negro"},
	}

	got := AssessSwapItem(item, pieces, SwapPreferences{})
	// Only one classic combo counted: the item's own row is skipped.
	assert.Equal(t, 75, got.Score)
}
