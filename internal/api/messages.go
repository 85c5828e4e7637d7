package api

import "time"

type Empty struct{}

// IDRequest addresses a single entity.
type IDRequest struct {
	ID string `json:"id" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AuthResponse struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type Group struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Name         string       `json:"name"`
	Color        string       `json:"color"`
	Icon         string       `json:"icon,omitempty"`
	DisplayOrder int          `json:"displayOrder"`
	IsOwner      bool         `json:"isOwner"`
	CanEdit      bool         `json:"canEdit"`
	Medications  []Medication `json:"medications"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type CreateGroupRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,hexcolor"`
	Icon  string `json:"icon" validate:"max=50"`
}

type UpdateGroupRequest struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required,max=100"`
	Color        string `json:"color" validate:"required,hexcolor"`
	Icon         string `json:"icon" validate:"max=50"`
	DisplayOrder *int   `json:"displayOrder" validate:"omitempty,min=0"`
}

type GroupResponse struct {
	Group Group `json:"group"`
}

type Medication struct {
	ID                  string     `json:"id"`
	GroupID             string     `json:"groupId"`
	Name                string     `json:"name"`
	Dosage              string     `json:"dosage"`
	Unit                string     `json:"unit"`
	Frequency           string     `json:"frequency"`
	IsAsNeeded          bool       `json:"isAsNeeded"`
	MinTimeBetweenDoses *int       `json:"minTimeBetweenDoses"`
	LastDose            *Dose      `json:"lastDose,omitempty"`
	CanTakeNow          bool       `json:"canTakeNow"`
	NextEligibleAt      *time.Time `json:"nextEligibleAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type ListMedicationsRequest struct {
	GroupID string `json:"groupId"`
}

type ListMedicationsResponse struct {
	Medications []Medication `json:"medications"`
}

type MedicationFields struct {
	Name                string `json:"name" validate:"required,max=100"`
	Dosage              string `json:"dosage" validate:"required,max=50"`
	Unit                string `json:"unit" validate:"required,max=20"`
	Frequency           string `json:"frequency" validate:"required,max=100"`
	IsAsNeeded          bool   `json:"isAsNeeded"`
	MinTimeBetweenDoses *int   `json:"minTimeBetweenDoses" validate:"omitempty,min=0"`
}

type CreateMedicationRequest struct {
	GroupID string `json:"groupId" validate:"required"`
	MedicationFields
}

type UpdateMedicationRequest struct {
	ID string `json:"id" validate:"required"`
	MedicationFields
}

type MedicationResponse struct {
	Medication Medication `json:"medication"`
}

type Dose struct {
	ID               string    `json:"id"`
	MedicationID     string    `json:"medicationId"`
	Timestamp        time.Time `json:"timestamp"`
	Notes            string    `json:"notes,omitempty"`
	Skipped          bool      `json:"skipped"`
	RecordedByUserID string    `json:"recordedByUserId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type RecordDoseRequest struct {
	MedicationID string     `json:"medicationId" validate:"required"`
	Timestamp    *time.Time `json:"timestamp"`
	Notes        string     `json:"notes" validate:"max=1000"`
	Skipped      bool       `json:"skipped"`
}

type DoseResponse struct {
	Dose Dose `json:"dose"`
}

type MedicationRequest struct {
	MedicationID string `json:"medicationId" validate:"required"`
}

type ListDosesResponse struct {
	Doses []Dose `json:"doses"`
}

type EligibilityResponse struct {
	Eligible       bool       `json:"eligible"`
	NextEligibleAt *time.Time `json:"nextEligibleAt,omitempty"`
}

type HistoryRequest struct {
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	MedicationIDs []string   `json:"medicationIds"`
	GroupIDs      []string   `json:"groupIds"`
	Status        string     `json:"status" validate:"omitempty,oneof=all taken skipped"`
	TimeOfDay     string     `json:"timeOfDay" validate:"omitempty,oneof=all morning afternoon evening night"`
	Search        string     `json:"search" validate:"max=100"`
	SortField     string     `json:"sortField" validate:"omitempty,oneof=timestamp medicationName dosage status"`
	SortDirection string     `json:"sortDirection" validate:"omitempty,oneof=asc desc"`
	Page          int        `json:"page" validate:"min=0"`
	Limit         int        `json:"limit" validate:"min=0,max=100"`
}

type HistoryEntry struct {
	Dose
	MedicationName string `json:"medicationName"`
	Dosage         string `json:"dosage"`
	Unit           string `json:"unit"`
	GroupID        string `json:"groupId"`
	GroupName      string `json:"groupName"`
	GroupColor     string `json:"groupColor"`
}

type HistoryResponse struct {
	Records    []HistoryEntry `json:"records"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

type GrantAccessRequest struct {
	Email    string   `json:"email" validate:"required"`
	GroupIDs []string `json:"groupIds" validate:"required,min=1,dive,required"`
	CanEdit  bool     `json:"canEdit"`
}

type AccessGrant struct {
	ID             string    `json:"id"`
	GrantedByID    string    `json:"grantedById"`
	GrantedToID    string    `json:"grantedToId"`
	GroupID        string    `json:"groupId"`
	CanEdit        bool      `json:"canEdit"`
	CreatedAt      time.Time `json:"createdAt"`
	GrantedByEmail string    `json:"grantedByEmail,omitempty"`
	GrantedToEmail string    `json:"grantedToEmail,omitempty"`
	GroupName      string    `json:"groupName,omitempty"`
	GroupColor     string    `json:"groupColor,omitempty"`
}

type GrantAccessResponse struct {
	Grants []AccessGrant `json:"grants"`
}

// ListAccessResponse splits grants by the caller's side of them.
type ListAccessResponse struct {
	Given    []AccessGrant `json:"given"`
	Received []AccessGrant `json:"received"`
}

type DayStats struct {
	Date    string `json:"date"` // YYYY-MM-DD in the user's zone
	Taken   int    `json:"taken"`
	Skipped int    `json:"skipped"`
}

type StatsResponse struct {
	Days         []DayStats `json:"days"`
	TotalTaken   int        `json:"totalTaken"`
	TotalSkipped int        `json:"totalSkipped"`
}

type Preferences struct {
	Theme              string `json:"theme"`
	Timezone           string `json:"timezone"`
	EmailNotifications bool   `json:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	ReminderTime       int    `json:"reminderTime"`
	ReminderBuffer     int    `json:"reminderBuffer"`
	SoundEnabled       bool   `json:"soundEnabled"`
	VibrationEnabled   bool   `json:"vibrationEnabled"`
	ColorScheme        string `json:"colorScheme"`
	FontSize           string `json:"fontSize"`
	UseHighContrast    bool   `json:"useHighContrast"`
}

// UpdatePreferencesRequest changes only the fields that are set.
type UpdatePreferencesRequest struct {
	Theme              *string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Timezone           *string `json:"timezone" validate:"omitempty,min=1"`
	EmailNotifications *bool   `json:"emailNotifications"`
	PushNotifications  *bool   `json:"pushNotifications"`
	ReminderTime       *int    `json:"reminderTime" validate:"omitempty,min=0,max=23"`
	ReminderBuffer     *int    `json:"reminderBuffer" validate:"omitempty,min=0,max=60"`
	SoundEnabled       *bool   `json:"soundEnabled"`
	VibrationEnabled   *bool   `json:"vibrationEnabled"`
	ColorScheme        *string `json:"colorScheme" validate:"omitempty,max=30"`
	FontSize           *string `json:"fontSize" validate:"omitempty,oneof=small medium large"`
	UseHighContrast    *bool   `json:"useHighContrast"`
}

type PreferencesResponse struct {
	Preferences Preferences `json:"preferences"`
}
