package models

import "armariapi/outfit"

type GarmentUrlRequestIn struct {
	GarmentId uint   `json:"garment_id"`
	FileName  string `json:"file_name"`
}

type GarmentFilesUploadRequestIn struct {
	Garments []GarmentUrlRequestIn `json:"garments"`
}

type GarmentFileUploadRequestOut struct {
	GarmentId uint   `json:"garment_id"`
	FileName  string `json:"file_name"`
	UploadUrl string `json:"upload_url"`
}

type GarmentFilesUploadRequestOut struct {
	Garments []GarmentFileUploadRequestOut `json:"garments"`
}

type GarmentCreateIn struct {
	Name     string  `json:"name" validate:"omitempty,max=100"`
	FileName *string `json:"file_name" validate:"required,max=200"`
}

type GarmentUpdateIn struct {
	Name           *string `json:"name"`
	Category       *string `json:"category"`
	Color          *string `json:"color"`
	SecondaryColor *string `json:"secondary_color"`
	Style          *string `json:"style" validate:"omitempty,style"`
	Season         *string `json:"season" validate:"omitempty,season"`
	Pattern        *string `json:"pattern"`
	Material       *string `json:"material"`
	SizeOffset     *int    `json:"size_offset"`
}

type GarmentOut struct {
	Id             uint    `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Role           string  `json:"role"`
	Color          string  `json:"color"`
	SecondaryColor string  `json:"secondary_color"`
	Style          string  `json:"style"`
	Season         string  `json:"season"`
	Pattern        string  `json:"pattern"`
	Material       string  `json:"material"`
	SizeOffset     int     `json:"size_offset"`
	Status         string  `json:"status"`
	ImageURL       *string `json:"image_url"`
}

type ClosetOut struct {
	// garments grouped by derived role, unclassified included so the
	// app can prompt the user to fix the category
	Groups map[string][]GarmentOut `json:"groups"`
}

type RecommendIn struct {
	TopLength      string   `json:"top_length" validate:"omitempty,oneof=short long"`
	BottomLength   string   `json:"bottom_length" validate:"omitempty,oneof=short long"`
	Formality      int      `json:"formality" validate:"omitempty,min=1,max=5"`
	FavoriteColors []string `json:"favorite_colors"`
	AvoidColors    []string `json:"avoid_colors"`
	EventType      string   `json:"event_type"`
	MaxResults     int      `json:"max_results" validate:"omitempty,min=1,max=20"`
}

type RuleHitOut struct {
	Rule  string `json:"rule"`
	Delta int    `json:"delta"`
}

type OutfitOut struct {
	Top       *GarmentOut  `json:"top"`
	Bottom    *GarmentOut  `json:"bottom"`
	Shoes     *GarmentOut  `json:"shoes"`
	Outerwear *GarmentOut  `json:"outerwear"`
	Score     int          `json:"score"`
	Rating    int          `json:"rating"`
	Rules     []RuleHitOut `json:"rules"`
}

type ExcludedGarmentOut struct {
	Id     uint   `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type RecommendOut struct {
	Outfits     []OutfitOut          `json:"outfits"`
	Excluded    []ExcludedGarmentOut `json:"excluded"`
	EmptyReason string               `json:"empty_reason,omitempty"`
}

type SwapIn struct {
	OutfitGarmentIds []uint `json:"outfit_garment_ids" validate:"required,min=1"`
	Role             string `json:"role" validate:"required,oneof=top bottom shoes outerwear dress accessory"`
}

type SwapItemOut struct {
	Garment GarmentOut   `json:"garment"`
	Score   int          `json:"score"`
	Tier    string       `json:"tier"`
	Rules   []RuleHitOut `json:"rules"`
}

type SwapOut struct {
	Recommended    []SwapItemOut `json:"recommended"`
	Alternative    []SwapItemOut `json:"alternative"`
	NotRecommended []SwapItemOut `json:"not_recommended"`
}

type TryOnRequestIn struct {
	TopGarmentId       uint  `json:"top_garment_id" validate:"required"`
	BottomGarmentId    uint  `json:"bottom_garment_id" validate:"required"`
	ShoesGarmentId     *uint `json:"shoes_garment_id"`
	OuterwearGarmentId *uint `json:"outerwear_garment_id"`
}

func RuleHitsOut(hits []outfit.RuleHit) []RuleHitOut {
	out := make([]RuleHitOut, 0, len(hits))
	for _, h := range hits {
		out = append(out, RuleHitOut{Rule: h.Rule, Delta: h.Delta})
	}
	return out
}
