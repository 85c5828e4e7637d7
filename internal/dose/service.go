package dose

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medtrack-api/internal/access"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// maxClockSkew is how far in the future a client-supplied dose time may be.
const maxClockSkew = 5 * time.Minute

type RecordInput struct {
	MedicationID string
	Timestamp    *time.Time // nil records the server time
	Notes        string
	Skipped      bool
}

type Service struct {
	db     store.Backend
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db store.Backend, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger, now: time.Now}
}

// Evaluate checks a medication against its most recent taken dose inside
// an open transaction.
func Evaluate(ctx context.Context, q store.Queries, med *model.Medication, now time.Time) (Eligibility, error) {
	if med.MinTimeBetweenDoses == nil || *med.MinTimeBetweenDoses <= 0 {
		return Eligibility{Eligible: true}, nil
	}
	last, err := q.LatestDose(ctx, med.ID, true)
	if errors.Is(err, store.ErrNotFound) {
		return Eligibility{Eligible: true}, nil
	}
	if err != nil {
		return Eligibility{}, err
	}
	return Check(med.MinTimeBetweenDoses, &last.Timestamp, now), nil
}

func (s *Service) CanRecordDose(ctx context.Context, userID, medicationID string) (Eligibility, error) {
	var out Eligibility
	err := s.db.ReadTx(ctx, func(q store.Queries) error {
		med, err := access.Medication(ctx, q, userID, medicationID, false)
		if err != nil {
			return err
		}
		out, err = Evaluate(ctx, q, med, s.now())
		return err
	})
	if err != nil {
		return Eligibility{}, apperr.Wrap(err, "eligibility check failed")
	}
	return out, nil
}

// RecordDose stores a taken or skipped dose. Taken doses must be eligible at
// the server clock; skipped doses are always accepted.
func (s *Service) RecordDose(ctx context.Context, userID string, in RecordInput) (*model.DoseRecord, error) {
	if strings.TrimSpace(in.MedicationID) == "" {
		return nil, apperr.Validationf("medication id required")
	}
	now := s.now()
	ts := now
	if in.Timestamp != nil {
		if in.Timestamp.After(now.Add(maxClockSkew)) {
			return nil, apperr.Validationf("dose time is in the future")
		}
		ts = *in.Timestamp
	}

	rec := &model.DoseRecord{
		ID:               uuid.New().String(),
		MedicationID:     in.MedicationID,
		Timestamp:        ts.UTC(),
		Notes:            in.Notes,
		Skipped:          in.Skipped,
		RecordedByUserID: userID,
	}
	err := s.db.WithTx(ctx, func(q store.Queries) error {
		med, err := access.Medication(ctx, q, userID, in.MedicationID, true)
		if err != nil {
			return err
		}
		if !in.Skipped {
			e, err := Evaluate(ctx, q, med, now)
			if err != nil {
				return err
			}
			if !e.Eligible {
				return apperr.Ineligible(*e.NextEligibleAt)
			}
		}
		return q.CreateDose(ctx, rec)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "record dose failed")
	}

	s.logger.Info("dose recorded",
		zap.String("dose_id", rec.ID),
		zap.String("medication_id", rec.MedicationID),
		zap.String("user_id", userID),
		zap.Bool("skipped", rec.Skipped),
	)
	return rec, nil
}

// ListDoses returns a visible medication's doses, newest first.
func (s *Service) ListDoses(ctx context.Context, userID, medicationID string) ([]model.DoseRecord, error) {
	var out []model.DoseRecord
	err := s.db.ReadTx(ctx, func(q store.Queries) error {
		if _, err := access.Medication(ctx, q, userID, medicationID, false); err != nil {
			return err
		}
		var err error
		out, err = q.DosesByMedication(ctx, medicationID)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "list doses failed")
	}
	return out, nil
}

func (s *Service) DeleteDose(ctx context.Context, userID, doseID string) error {
	err := s.db.WithTx(ctx, func(q store.Queries) error {
		d, err := q.DoseByID(ctx, doseID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFoundf("dose not found")
		}
		if err != nil {
			return err
		}
		if _, err := access.Medication(ctx, q, userID, d.MedicationID, true); apperr.Is(err, apperr.NotFound) {
			return apperr.NotFoundf("dose not found")
		} else if err != nil {
			return err
		}
		return q.DeleteDose(ctx, doseID)
	})
	if err != nil {
		return apperr.Wrap(err, "delete dose failed")
	}
	s.logger.Info("dose deleted", zap.String("dose_id", doseID), zap.String("user_id", userID))
	return nil
}
