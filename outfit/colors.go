package outfit

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Garment color and category text comes from a vision model and from user
// edits, so it is free text in mixed Spanish/English with inconsistent
// casing and accents. Every comparison in this package goes through
// normalize + substring containment in either direction: false positives
// are preferred over false negatives for combinability.

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return stripped
}

func colorMatches(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func matchesAnyColor(color string, list []string) bool {
	for _, entry := range list {
		if colorMatches(color, entry) {
			return true
		}
	}
	return false
}

// missingColorStandIn is substituted for an empty color when the generator
// is configured with TreatMissingColorAsNeutral. It lives in the neutral
// set and nothing else.
const missingColorStandIn = "neutro"

var neutralColors = []string{
	"negro", "blanco", "gris", "beige", "crema", "kaki", "caqui",
	"azul marino", "camel", "denim", "neutro",
	"black", "white", "grey", "gray", "navy", "cream", "khaki",
}

var lightColors = []string{
	"blanco", "crema", "beige", "amarillo", "rosa", "celeste",
	"azul claro", "gris claro", "verde claro", "lila",
	"white", "cream", "yellow", "pink", "light blue", "sky blue",
}

var darkColors = []string{
	"negro", "azul marino", "gris oscuro", "marron", "granate",
	"burdeos", "verde oscuro", "morado oscuro",
	"black", "navy", "dark grey", "brown", "maroon", "burgundy",
}

var vibrantColors = []string{
	"rojo", "naranja", "amarillo", "rosa", "morado", "fucsia",
	"verde lima", "turquesa",
	"red", "orange", "yellow", "pink", "purple", "fuchsia", "lime",
}

var classicCombos = [][2]string{
	{"azul marino", "blanco"},
	{"negro", "blanco"},
	{"gris", "rosa"},
	{"beige", "azul marino"},
	{"marron", "beige"},
	{"camel", "negro"},
	{"denim", "blanco"},
	{"gris", "burdeos"},
	{"verde oscuro", "beige"},
	{"navy", "white"},
	{"black", "white"},
}

var clashingCombos = [][2]string{
	{"rojo", "naranja"},
	{"rojo", "rosa"},
	{"verde", "rojo"},
	{"morado", "naranja"},
	{"azul", "naranja"},
	{"rosa", "naranja"},
	{"verde", "morado"},
	{"red", "orange"},
	{"red", "pink"},
	{"green", "red"},
}

func IsNeutral(color string) bool { return matchesAnyColor(color, neutralColors) }
func IsLight(color string) bool   { return matchesAnyColor(color, lightColors) }
func IsDark(color string) bool    { return matchesAnyColor(color, darkColors) }
func IsVibrant(color string) bool { return matchesAnyColor(color, vibrantColors) }

func comboMatches(a, b string, table [][2]string) bool {
	for _, pair := range table {
		if colorMatches(a, pair[0]) && colorMatches(b, pair[1]) {
			return true
		}
		if colorMatches(a, pair[1]) && colorMatches(b, pair[0]) {
			return true
		}
	}
	return false
}

// IsClassicCombo reports whether the two colors form a curated
// known-good pair, in either order.
func IsClassicCombo(a, b string) bool { return comboMatches(a, b, classicCombos) }

// IsClashingCombo reports whether the two colors form a curated
// visually-clashing pair, in either order.
func IsClashingCombo(a, b string) bool { return comboMatches(a, b, clashingCombos) }

// colorFamily is the leading word of a normalized color, so "gris claro"
// and "gris oscuro" land in the same family.
func colorFamily(color string) string {
	fields := strings.Fields(normalize(color))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ColorScore sums every applicable color rule for a top/bottom color pair.
// The neutral bonus is asymmetric: a neutral bottom anchors an outfit and
// is weighted above a neutral top.
func ColorScore(topColor, bottomColor string) int {
	score, _ := colorScore(topColor, bottomColor, false)
	return score
}

func colorScore(topColor, bottomColor string, allowMonochrome bool) (int, []RuleHit) {
	var trace []RuleHit
	score := 0
	hit := func(rule string, delta int) {
		score += delta
		trace = append(trace, RuleHit{Rule: rule, Delta: delta})
	}

	contrast := (IsDark(topColor) && IsLight(bottomColor)) ||
		(IsLight(topColor) && IsDark(bottomColor))
	if contrast {
		hit("dark/light contrast", 12)
	}
	if IsNeutral(bottomColor) {
		hit("neutral bottom", 10)
	}
	if IsNeutral(topColor) && !IsNeutral(bottomColor) && normalize(bottomColor) != "" {
		hit("neutral top over colored bottom", 8)
	}
	if IsClassicCombo(topColor, bottomColor) {
		hit("classic combination", 15)
	}
	sameFamily := colorFamily(topColor) != "" && colorFamily(topColor) == colorFamily(bottomColor)
	if sameFamily && contrast {
		hit("monochrome with shade contrast", 8)
	}
	if colorMatches(topColor, bottomColor) && !contrast && !allowMonochrome {
		hit("same color without contrast", -12)
	}
	if IsClashingCombo(topColor, bottomColor) {
		hit("clashing combination", -15)
	}
	if IsVibrant(topColor) && IsVibrant(bottomColor) && !colorMatches(topColor, bottomColor) {
		hit("two different vibrant colors", -18)
	}
	bothLightLoud := IsLight(topColor) && IsLight(bottomColor) &&
		!IsNeutral(topColor) && !IsNeutral(bottomColor)
	bothDarkSame := IsDark(topColor) && IsDark(bottomColor) &&
		colorMatches(topColor, bottomColor)
	if bothLightLoud || bothDarkSame {
		hit("no contrast", -8)
	}
	return score, trace
}
