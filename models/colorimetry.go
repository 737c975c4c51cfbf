package models

import (
	"github.com/lib/pq"

	"armariapi/outfit"
)

// UserColorimetry stores the externally analyzed colors that favor or
// wash out a user. One row per user, replaced wholesale on re-analysis.
type UserColorimetry struct {
	JsonModel
	UserAccountID uint           `gorm:"uniqueIndex" json:"-"`
	UserAccount   UserAccount    `json:"-"`
	FavorColors   pq.StringArray `gorm:"type:text[]" json:"favor_colors"`
	AvoidColors   pq.StringArray `gorm:"type:text[]" json:"avoid_colors"`
	SeasonType    *string        `json:"season_type"` // e.g. "invierno profundo"
}

func (c UserColorimetry) ToEngine() *outfit.ColorimetryProfile {
	return &outfit.ColorimetryProfile{
		FavorColors: c.FavorColors,
		AvoidColors: c.AvoidColors,
	}
}

type ColorimetryIn struct {
	FavorColors []string `json:"favor_colors" validate:"required"`
	AvoidColors []string `json:"avoid_colors" validate:"required"`
	SeasonType  *string  `json:"season_type"`
}
