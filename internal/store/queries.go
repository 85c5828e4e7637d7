package store

import (
	"context"
	"time"

	"medtrack-api/internal/model"
)

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// Queries is every read and write the services need. Lookups of a single
// row return ErrNotFound when nothing matches.
type Queries interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ClaimUser(ctx context.Context, id, passwordHash, name string) error

	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error

	Preferences(ctx context.Context, userID string) (*model.UserPreferences, error)
	UpsertPreferences(ctx context.Context, p *model.UserPreferences) error

	CreateGroup(ctx context.Context, g *model.MedicationGroup) error
	GroupByID(ctx context.Context, id string) (*model.MedicationGroup, error)
	GroupsByIDs(ctx context.Context, ids []string) ([]model.MedicationGroup, error)
	OwnedGroupIDs(ctx context.Context, ownerID string, ids []string) ([]string, error)
	UpdateGroup(ctx context.Context, g *model.MedicationGroup) error
	DeleteGroup(ctx context.Context, id string) error

	// GroupPermissions returns every group the user owns or holds a grant
	// for, mapped to whether the user may edit it.
	GroupPermissions(ctx context.Context, userID string) (map[string]bool, error)

	CreateMedication(ctx context.Context, m *model.Medication) error
	MedicationByID(ctx context.Context, id string) (*model.Medication, error)
	MedicationsByGroups(ctx context.Context, groupIDs []string) ([]model.Medication, error)
	UpdateMedication(ctx context.Context, m *model.Medication) error
	DeleteMedication(ctx context.Context, id string) error

	CreateDose(ctx context.Context, d *model.DoseRecord) error
	DoseByID(ctx context.Context, id string) (*model.DoseRecord, error)
	DeleteDose(ctx context.Context, id string) error
	// LatestDose returns the most recent dose of a medication, skipping
	// skipped doses when takenOnly is set.
	LatestDose(ctx context.Context, medicationID string, takenOnly bool) (*model.DoseRecord, error)
	DosesByMedication(ctx context.Context, medicationID string) ([]model.DoseRecord, error)
	DosesInRange(ctx context.Context, groupIDs []string, from, to time.Time) ([]model.DoseRecord, error)

	CreateAccessGrant(ctx context.Context, g *model.AccessGrant) error
	AccessGrantByID(ctx context.Context, id string) (*model.AccessGrant, error)
	DeleteAccessGrant(ctx context.Context, id string) error
	ListAccessGrants(ctx context.Context, userID string) ([]model.AccessGrantView, error)

	// HistoryPage returns the filtered page of doses whose medication is in
	// one of the scope groups.
	HistoryPage(ctx context.Context, scope []string, f model.HistoryFilter) (*model.HistoryPage, error)
}
