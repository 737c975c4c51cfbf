package models

import (
	"regexp"

	"github.com/go-playground/validator"

	"armariapi/outfit"
)

type Garment struct {
	JsonModel
	Name                string      `json:"name"`
	Owner               UserAccount `json:"-"`
	OwnerID             uint        `json:"-"`
	CompanyID           uint        `json:"-"`
	Company             Company     `json:"company"`
	Status              string      `json:"status"`            // temporary, in_closet
	ImageStatus         string      `json:"image_status"`      // draft, uploaded
	ProcessingStatus    string      `json:"processing_status"` // idle, classifying, completed, failed
	ProcessRetryTimes   int         `json:"process_retry_times"`
	ProcessErrorMessage *string     `json:"process_error_message"`
	ImageURL            *string     `json:"image_url"`

	// classifier output, user-editable afterwards
	Category       string `json:"category"`
	Color          string `json:"color"`
	SecondaryColor string `json:"secondary_color"`
	Style          string `json:"style"`
	Season         string `json:"season"`
	Pattern        string `json:"pattern"`
	Material       string `json:"material"`
	SizeOffset     int    `json:"size_offset"` // -1 small, 0 normal, +1 large
}

// ToEngine builds the engine's read-only view of this garment.
func (g Garment) ToEngine() outfit.Garment {
	return outfit.Garment{
		ID:             g.ID,
		Name:           g.Name,
		Category:       g.Category,
		Color:          g.Color,
		SecondaryColor: g.SecondaryColor,
		Style:          g.Style,
		Season:         g.Season,
		Pattern:        g.Pattern,
		SizeOffset:     g.SizeOffset,
		Material:       g.Material,
	}
}

// OutfitTryonGeneration is one rendered (or pending) try-on preview for a
// chosen outfit. OutfitKey is the order-independent garment-id tuple, so
// a repeat request for the same outfit reuses the existing row.
type OutfitTryonGeneration struct {
	JsonModel
	TopGarmentID       uint        `json:"top_garment_id"`
	TopGarment         *Garment    `json:"top_garment"`
	BottomGarmentID    uint        `json:"bottom_garment_id"`
	BottomGarment      *Garment    `json:"bottom_garment"`
	ShoesGarmentID     *uint       `json:"shoes_garment_id"`
	ShoesGarment       *Garment    `json:"shoes_garment"`
	OuterwearGarmentID *uint       `json:"outerwear_garment_id"`
	OuterwearGarment   *Garment    `json:"outerwear_garment"`
	OutfitKey          string      `gorm:"index" json:"-"`
	UserAccountID      uint        `json:"-"`
	UserAccount        UserAccount `json:"user_account"`
	CompanyID          uint        `json:"company_id"`
	Company            Company     `json:"company"`

	// user avatar at the point of generation
	GeneratedWithAvatarURL string `json:"generated_with_avatar_url"`

	TryOnPreviewImageURL   *string  `json:"try_on_preview_image_url"`
	Status                 string   `json:"status"`   // pending, completed, failed
	Duration               *float64 `json:"duration"` // in seconds
	LLMModel               *string  `json:"llm_model"`
	LLMInputTokenCount     *int32   `json:"llm_input_token_usage"`
	LLMOutputTokenCount    *int32   `json:"llm_output_token_usage"`
	LLMTotalTokenCount     *int32   `json:"llm_total_token_usage"`
	LLMThoughtsTokenCount  *int32   `json:"llm_thoughts_token_count"`
	GenerationRetryTimes   int      `json:"generation_retry_times"`
	GenerationErrorMessage *string  `json:"generation_error_message"`
}

// Key recomputes the composite outfit key from the stored ids.
func (t OutfitTryonGeneration) Key() string {
	return outfit.OutfitKey(t.TopGarmentID, t.BottomGarmentID, t.ShoesGarmentID, t.OuterwearGarmentID)
}

func ValidateStyle(fl validator.FieldLevel) bool {
	return ValidateStyleRaw(fl.Field().String())
}

func ValidateStyleRaw(value string) bool {
	matched, _ := regexp.MatchString("^casual|formal|deportivo|elegante|business|fiesta|vintage|streetwear$", value)
	return matched
}

func ValidateSeason(fl validator.FieldLevel) bool {
	return ValidateSeasonRaw(fl.Field().String())
}

func ValidateSeasonRaw(value string) bool {
	matched, _ := regexp.MatchString("^verano|primavera|invierno|otono|all_season$", value)
	return matched
}
