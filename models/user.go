package models

import "time"

type UserAccount struct {
	JsonModel
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Banned   bool   `gorm:"default:false" json:"-"`
	LastIp   string `json:"-"`
	//"INVITATION_PENDING", "STARTED_AUTH", "FINISHED_AUTH"
	Status              string            `json:"-"`
	GoogleID            string            `json:"-"`
	UTMSource           string            `json:"utm_source"`
	Platform            Platform          `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	Memberships         []UserCompanyRole `gorm:"foreignKey:UserAccountID"`
	AdminInCompanys     []Company         `gorm:"foreignKey:OwnerID"`
	Subscription        *string           `json:"subscription"`
	ExpirationDate      *time.Time        `json:"-"`
	ConfirmedDeleteDate *time.Time        `json:"-"`
	// Notifications settings
	ReceiveNotifications bool `json:"receive_notifications"`
	IsSuperadmin         bool `json:"is_superadmin"`
	// user app image/avatar
	AvatarURL string `json:"avatar_url"`

	FullBodyAvatarSet bool `json:"full_body_avatar_set"`
	// user full body avatar for try ons!
	UserFullBodyImageURL *string `json:"user_image_url"`
	FullBodyAvatarStatus string  `json:"full_body_avatar_status"` // idle, processing, completed, failed
}

type UserPushToken struct {
	JsonModel
	UserAccountID uint
	UserAccount   UserAccount `json:"user_account"`
	Platform      Platform    `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	Token         string      `json:"token"`
	Active        bool        `gorm:"default:false" json:"-"`
}

type UserPushIn struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type UserSettingsIn struct {
	ReceiveNotifications bool `json:"receive_notifications"`
}

type UserCompanyRole struct {
	JsonModel
	UserAccountID    uint
	UserAccount      UserAccount `json:"user_account"`
	Active           bool        `gorm:"default:false" json:"-"`
	Role             Role        `sql:"type:ENUM('OWNER', 'ADMIN', 'MEMBER')" json:"role"`
	InviteCode       *string     `json:"-"`
	InviteAcceptedAt *int64      `json:"invite_accepted_at"`
	CompanyID        uint
	Company          Company `json:"company"`
}

type Company struct {
	JsonModel
	Name                       string            `json:"name"`
	ImageUrl                   *string           `json:"image_url"`
	Owner                      UserAccount       `json:"-"`
	OwnerID                    uint              `json:"-"`
	Subscription               Subscription      `json:"subscription"`
	TrialStartedDate           *int64            `json:"trial_started_date"`
	TrialDays                  *uint             `json:"trial_days"`
	Members                    []UserCompanyRole `json:"members"`
	Active                     bool              `json:"active"`
	EnforcedDailyGarmentLimit  *int32            `json:"enforced_daily_garment_limit"`
	EnforcedDailyTryOnLimit    *int32            `json:"enforced_daily_try_on_limit"`
	EnforcedLLMModel           *int32            `json:"enforced_llm_model"`
	FullAdminAccess            bool              `json:"full_admin_access"`
}

type CompanySubscription struct {
	JsonModel

	Subscription Subscription `json:"subscription"`

	PaidDate time.Time `json:"paid_date"`
	IsAnnual bool      `json:"is_annual"`
}
