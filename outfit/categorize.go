package outfit

import "strings"

type Role string

const (
	RoleOuterwear    Role = "outerwear"
	RoleTop          Role = "top"
	RoleBottom       Role = "bottom"
	RoleShoes        Role = "shoes"
	RoleDress        Role = "dress"
	RoleAccessory    Role = "accessory"
	RoleUnclassified Role = "unclassified"
)

type LengthClass string

const (
	LengthShort   LengthClass = "short"
	LengthLong    LengthClass = "long"
	LengthUnknown LengthClass = "unknown"
)

// FormalityBucket is the coarse three-tier shoe/outerwear classification
// the scorer's formality rules key on. It is not used by the generator's
// role filters.
type FormalityBucket string

const (
	BucketFormal  FormalityBucket = "formal"
	BucketNeutral FormalityBucket = "neutral"
	BucketCasual  FormalityBucket = "casual"
)

// Keyword lists are deliberately low precision / high recall: they double
// as documentation of what each role means and as test fixtures. Matching
// is substring-contains on normalized text.

var outerwearKeywords = []string{
	"abrigo", "chaqueta", "cazadora", "parka", "blazer", "americana",
	"gabardina", "trench", "anorak", "plumifero", "chaleco",
	"coat", "jacket",
}

var topKeywords = []string{
	"camiseta", "camisa", "blusa", "jersey", "sudadera", "polo",
	"top", "cardigan", "hoodie", "tirantes", "tank",
	"shirt", "sweater",
}

var bottomKeywords = []string{
	"pantalon", "vaquero", "jean", "falda", "short", "bermuda",
	"legging", "jogger", "chino", "cargo", "palazzo", "banador",
	"trousers", "skirt",
}

var shoesKeywords = []string{
	"zapatilla", "zapato", "sneaker", "bota", "botin", "sandalia",
	"mocasin", "tacon", "alpargata", "deportiva", "oxford", "loafer",
	"chancla", "shoe", "boot",
}

var dressKeywords = []string{
	"vestido", "mono", "jumpsuit", "dress",
}

var accessoryKeywords = []string{
	"bolso", "cinturon", "bufanda", "gorra", "sombrero", "panuelo",
	"collar", "pulsera", "gafas", "reloj",
	"bag", "belt", "scarf", "hat",
}

func containsAny(label string, keywords []string) bool {
	label = normalize(label)
	if label == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// ClassifyRole maps free category text to the slot a garment fills.
// Checked in fixed priority order so that a label matching several lists
// is classified by the first one it satisfies.
func ClassifyRole(categoryText string) Role {
	switch {
	case containsAny(categoryText, outerwearKeywords):
		return RoleOuterwear
	case containsAny(categoryText, topKeywords):
		return RoleTop
	case containsAny(categoryText, bottomKeywords):
		return RoleBottom
	case containsAny(categoryText, shoesKeywords):
		return RoleShoes
	case containsAny(categoryText, dressKeywords):
		return RoleDress
	case containsAny(categoryText, accessoryKeywords):
		return RoleAccessory
	default:
		return RoleUnclassified
	}
}

var longSleeveKeywords = []string{
	"camisa", "jersey", "sudadera", "blazer", "cardigan", "abrigo",
	"chaqueta", "americana", "manga larga", "sweater",
}

var shortSleeveKeywords = []string{
	"camiseta", "polo", "top", "tirantes", "tank",
}

var shortBottomKeywords = []string{
	"short", "corto", "corta", "bermuda", "banador", "bano", "mini",
}

var longBottomKeywords = []string{
	"pantalon", "vaquero", "jean", "chino", "jogger", "palazzo",
	"cargo", "legging", "trousers",
}

// ClassifyLength derives the sleeve or leg length for a classified
// garment. Explicit short signals override long ones: "falda corta" beats
// the generic falda-defaults-to-long rule.
func ClassifyLength(categoryText string, role Role) LengthClass {
	switch role {
	case RoleTop:
		if containsAny(categoryText, []string{"manga corta"}) {
			return LengthShort
		}
		if containsAny(categoryText, longSleeveKeywords) {
			return LengthLong
		}
		if containsAny(categoryText, shortSleeveKeywords) {
			return LengthShort
		}
		// A blusa with no explicit manga larga reads as short sleeve.
		if containsAny(categoryText, []string{"blusa"}) {
			return LengthShort
		}
		return LengthUnknown
	case RoleBottom:
		if containsAny(categoryText, shortBottomKeywords) {
			return LengthShort
		}
		if containsAny(categoryText, longBottomKeywords) {
			return LengthLong
		}
		if containsAny(categoryText, []string{"falda", "vestido", "skirt"}) {
			return LengthLong
		}
		return LengthUnknown
	default:
		return LengthUnknown
	}
}

var formalShoeKeywords = []string{"zapato", "mocasin", "tacon", "oxford", "loafer", "vestir"}
var casualShoeKeywords = []string{"zapatilla", "sneaker", "deportiv", "chancla", "alpargata"}

// ShoeFormality buckets shoes into the coarse formal/neutral/casual tiers.
// Casual keywords win: "zapatilla deportiva" must not read as formal.
func ShoeFormality(categoryText string) FormalityBucket {
	switch {
	case containsAny(categoryText, casualShoeKeywords):
		return BucketCasual
	case containsAny(categoryText, formalShoeKeywords):
		return BucketFormal
	default:
		return BucketNeutral
	}
}
