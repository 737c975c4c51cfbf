package outfit

import (
	"fmt"
	"strings"
)

// Garment is the engine's read-only view of a wardrobe item. The engine
// never mutates a Garment; callers build the snapshot from whatever store
// they use.
type Garment struct {
	ID             uint
	Name           string
	Category       string
	Color          string
	SecondaryColor string
	Style          string
	Season         string
	Pattern        string
	SizeOffset     int
	Material       string
}

// roleLabel is the text the categorizer keys on. Category when the
// classifier produced one, the user-facing title otherwise.
func (g Garment) roleLabel() string {
	if strings.TrimSpace(g.Category) != "" {
		return g.Category
	}
	return g.Name
}

// CandidateOutfit is an ephemeral scored tuple produced by one Generate
// call. Top and Bottom are always set, Shoes and Outerwear are optional.
type CandidateOutfit struct {
	Top       *Garment
	Bottom    *Garment
	Shoes     *Garment
	Outerwear *Garment
	Score     int
	Rating    int
	Trace     []RuleHit
}

// Key is the order-independent composite id tuple used for deduplication
// inside one Generate call and as the external try-on cache key.
func (o CandidateOutfit) Key() string {
	var shoesID, outerID *uint
	if o.Shoes != nil {
		shoesID = &o.Shoes.ID
	}
	if o.Outerwear != nil {
		outerID = &o.Outerwear.ID
	}
	return OutfitKey(o.Top.ID, o.Bottom.ID, shoesID, outerID)
}

// OutfitKey builds the composite outfit key from raw garment ids. Nil
// optional slots serialize as "none" so the key stays null-safe.
func OutfitKey(topID, bottomID uint, shoesID, outerwearID *uint) string {
	part := func(id *uint) string {
		if id == nil {
			return "none"
		}
		return fmt.Sprintf("%d", *id)
	}
	return fmt.Sprintf("t:%d|b:%d|s:%s|o:%s", topID, bottomID, part(shoesID), part(outerwearID))
}
