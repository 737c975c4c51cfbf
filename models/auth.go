package models

import "time"

type JsonModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GoogleAuthSignIn struct {
	IdToken  string `json:"idToken" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type SignUpIn struct {
	ProfileIn
	IdToken  string `json:"idToken" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type ProfileIn struct {
	Name      string `json:"name" validate:"required"`
	Company   string `json:"company" validate:"required"`
	UTMSource string `json:"utm_source" validate:"required"`
}

type GoogleSignInOut struct {
	Email string `json:"email"`

	// these two null in first step
	Id        string `json:"id"`
	CompanyId string `json:"company_id"`

	New         bool   `json:"new"`
	Avatar      string `json:"avatar"`
	AccessToken string `json:"access_token"`
}

type CompanyInfoRoleOut struct {
	CompanyInfoOut
	Role string `json:"role"`
}

type UserMeInfoOut struct {
	Id                   string               `json:"id"`
	CompanyId            string               `json:"company_id"`
	Name                 string               `json:"name"`
	MyCompanies          []CompanyInfoRoleOut `json:"my_companies"`
	Email                string               `json:"email"`
	Status               string               `json:"-"`
	AvatarURL            string               `json:"avatar_url"`
	ReceiveNotifications bool                 `json:"receive_notifications"`
	FullBodyAvatarUrl    *string              `json:"user_fullbody_avatar_url"`
	FullBodyAvatarSet    bool                 `json:"full_body_avatar_set"`
	FullBodyAvatarStatus string               `json:"full_body_avatar_status"`
}

type UserInfoOut struct {
	Id          uint   `json:"id"`
	CompanyId   string `json:"company_id"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Status      string `json:"-"`
	AvatarURL   string `json:"avatar_url"`
}

type MemberInfoOut struct {
	UserInfo   UserInfoOut `json:"user"`
	Active     bool        `json:"active"`
	Role       Role        `json:"role"`
	InviteCode *string     `json:"invite_code"`
}

type CompanyOverviewOut struct {
	Name                      string          `json:"name"`
	ImageUrl                  *string         `json:"image_url"`
	Members                   []MemberInfoOut `json:"members"`
	Subscription              string          `json:"subscription"`
	OwnerID                   uint            `json:"owner_id"`
	TodayCreatedGarmentsCount *int64          `json:"today_created_garments_count"`
	TotalCreatedGarmentsCount *int64          `json:"total_created_garments_count"`
	DefaultDailyGarmentLimit  int32           `json:"default_daily_garment_limit"`
	DefaultTotalGarmentLimit  int32           `json:"default_total_garment_limit"`
	DefaultDailyTryOnLimit    int32           `json:"default_daily_try_on_limit"`
	FullAdminAccess           bool            `json:"full_admin_access"`
	LLMModel                  *int32          `json:"llm_model"`
}

type CompanyInfoOut struct {
	Name             string       `json:"name"`
	Subscription     Subscription `json:"subscription"`
	OwnerId          uint         `json:"owner_id"`
	Id               uint         `json:"id"`
	Active           bool         `json:"active"`
	TrialStartedDate *int64       `json:"trial_started_date"`
	TrialDays        *uint        `json:"trial_days"`
	FullAdminAccess  bool         `json:"full_admin_access"`
}

type MemberAddIn struct {
	Email string `json:"email" validate:"required"`
	Role  Role   `json:"role"`
}

type CompanyUpdateIn struct {
	Name     *string `json:"name"`
	LLMModel *int32  `json:"llm_model"`
}
