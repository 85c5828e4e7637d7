package model

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stub reports whether the user was created by an invitation and has not
// registered a credential yet.
func (u *User) Stub() bool { return u.PasswordHash == "" }

type MedicationGroup struct {
	ID           string
	UserID       string
	Name         string
	Color        string
	Icon         string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Medication struct {
	ID                  string
	GroupID             string
	Name                string
	Dosage              string
	Unit                string
	Frequency           string
	IsAsNeeded          bool
	MinTimeBetweenDoses *int // minutes, nil = no restriction
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type DoseRecord struct {
	ID               string
	MedicationID     string
	Timestamp        time.Time
	Notes            string
	Skipped          bool
	RecordedByUserID string
	CreatedAt        time.Time
}

type AccessGrant struct {
	ID          string
	GrantedByID string
	GrantedToID string
	GroupID     string
	CanEdit     bool
	CreatedAt   time.Time
}

// AccessGrantView is an AccessGrant with the counterpart data the grant
// lists display.
type AccessGrantView struct {
	AccessGrant
	GrantedByEmail string
	GrantedToEmail string
	GroupName      string
	GroupColor     string
}

type UserPreferences struct {
	UserID             string
	Theme              string
	Timezone           string
	EmailNotifications bool
	PushNotifications  bool
	ReminderTime       int
	ReminderBuffer     int
	SoundEnabled       bool
	VibrationEnabled   bool
	ColorScheme        string
	FontSize           string
	UseHighContrast    bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:             userID,
		Theme:              "system",
		Timezone:           "UTC",
		EmailNotifications: true,
		PushNotifications:  false,
		ReminderTime:       9,
		ReminderBuffer:     30,
		SoundEnabled:       true,
		VibrationEnabled:   true,
		ColorScheme:        "default",
		FontSize:           "medium",
		UseHighContrast:    false,
	}
}

// DoseEntry is a DoseRecord joined with its medication and group, as
// returned by history queries.
type DoseEntry struct {
	DoseRecord
	MedicationName string
	Dosage         string
	Unit           string
	GroupID        string
	GroupName      string
	GroupColor     string
}

type DayStats struct {
	Date    time.Time
	Taken   int
	Skipped int
}
