package outfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		category string
		want     Role
	}{
		{"Sudadera con capucha", RoleTop},
		{"Bermuda vaquera", RoleBottom},
		{"Camiseta básica", RoleTop},
		{"Pantalón chino", RoleBottom},
		{"Zapato Oxford", RoleShoes},
		{"Zapatilla deportiva", RoleShoes},
		{"Chaqueta vaquera", RoleOuterwear},
		{"Abrigo de lana", RoleOuterwear},
		{"Vestido largo", RoleDress},
		{"Bolso de mano", RoleAccessory},
		{"Cosa rara", RoleUnclassified},
		{"", RoleUnclassified},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRole(tc.category), "category %q", tc.category)
	}
}

func TestClassifyRolePriorityOrder(t *testing.T) {
	// Matches both the outerwear and top lists; outerwear wins.
	assert.Equal(t, RoleOuterwear, ClassifyRole("Blazer tipo camisa"))
}

func TestClassifyTopLength(t *testing.T) {
	cases := []struct {
		category string
		want     LengthClass
	}{
		{"Sudadera con capucha", LengthLong},
		{"Camisa de lino", LengthLong},
		{"Camiseta básica", LengthShort},
		{"Polo piqué", LengthShort},
		{"Blusa", LengthShort},
		{"Blusa manga larga", LengthLong},
		{"Top manga corta", LengthShort},
		{"Prenda superior", LengthUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyLength(tc.category, RoleTop), "category %q", tc.category)
	}
}

func TestClassifyBottomLength(t *testing.T) {
	cases := []struct {
		category string
		want     LengthClass
	}{
		{"Bermuda vaquera", LengthShort},
		{"Pantalón vaquero", LengthLong},
		{"Falda corta", LengthShort},
		{"Falda plisada", LengthLong},
		{"Short deportivo", LengthShort},
		{"Jogger", LengthLong},
		{"Prenda inferior", LengthUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyLength(tc.category, RoleBottom), "category %q", tc.category)
	}
}

func TestClassifyLengthOtherRoles(t *testing.T) {
	assert.Equal(t, LengthUnknown, ClassifyLength("Zapato Oxford", RoleShoes))
	assert.Equal(t, LengthUnknown, ClassifyLength("Abrigo", RoleOuterwear))
}

func TestShoeFormality(t *testing.T) {
	assert.Equal(t, BucketFormal, ShoeFormality("Zapato Oxford"))
	assert.Equal(t, BucketFormal, ShoeFormality("Mocasín de piel"))
	assert.Equal(t, BucketCasual, ShoeFormality("Zapatilla deportiva"))
	assert.Equal(t, BucketCasual, ShoeFormality("Sneaker"))
	assert.Equal(t, BucketNeutral, ShoeFormality("Bota de agua"))
}
