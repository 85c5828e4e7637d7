package handler

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"medtrack-api/internal/access"
	"medtrack-api/internal/api"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/dose"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// medicationViews loads the medications of groupIDs with their last dose
// and whether the viewer may record a dose now.
func (h *Handler) medicationViews(ctx context.Context, q store.Queries, v access.Visibility, groupIDs []string) ([]api.Medication, error) {
	out := []api.Medication{}
	if len(groupIDs) == 0 {
		return out, nil
	}
	meds, err := q.MedicationsByGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	now := h.now()
	for i := range meds {
		m := toMedication(&meds[i])

		last, err := q.LatestDose(ctx, meds[i].ID, false)
		switch {
		case err == nil:
			d := toDose(last)
			m.LastDose = &d
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}

		e, err := dose.Evaluate(ctx, q, &meds[i], now)
		if err != nil {
			return nil, err
		}
		m.CanTakeNow = e.Eligible && v.CanEdit(meds[i].GroupID)
		m.NextEligibleAt = e.NextEligibleAt
		out = append(out, m)
	}
	return out, nil
}

func (h *Handler) ListMedications(ctx context.Context, req *api.ListMedicationsRequest) (*api.ListMedicationsResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}

	resp := &api.ListMedicationsResponse{}
	err = h.db.ReadTx(ctx, func(q store.Queries) error {
		v, err := access.Resolve(ctx, q, userID)
		if err != nil {
			return err
		}
		groups := v.GroupIDs()
		if req.GroupID != "" {
			if !v.CanView(req.GroupID) {
				return apperr.NotFoundf("group not found")
			}
			groups = []string{req.GroupID}
		}
		resp.Medications, err = h.medicationViews(ctx, q, v, groups)
		return err
	})
	if err != nil {
		return nil, h.fail(ctx, "ListMedications", apperr.Wrap(err, "list medications failed"))
	}
	return resp, nil
}

func applyFields(m *model.Medication, f *api.MedicationFields) {
	m.Name = f.Name
	m.Dosage = f.Dosage
	m.Unit = f.Unit
	m.Frequency = f.Frequency
	m.IsAsNeeded = f.IsAsNeeded
	m.MinTimeBetweenDoses = f.MinTimeBetweenDoses
}

func (h *Handler) CreateMedication(ctx context.Context, req *api.CreateMedicationRequest) (*api.MedicationResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	m := &model.Medication{ID: uuid.New().String(), GroupID: req.GroupID}
	applyFields(m, &req.MedicationFields)
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		if err := access.Group(ctx, q, userID, req.GroupID, true); err != nil {
			return err
		}
		return q.CreateMedication(ctx, m)
	})
	if err != nil {
		return nil, h.fail(ctx, "CreateMedication", apperr.Wrap(err, "create medication failed"))
	}
	return &api.MedicationResponse{Medication: toMedication(m)}, nil
}

func (h *Handler) UpdateMedication(ctx context.Context, req *api.UpdateMedicationRequest) (*api.MedicationResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	var out api.Medication
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		m, err := access.Medication(ctx, q, userID, req.ID, true)
		if err != nil {
			return err
		}
		applyFields(m, &req.MedicationFields)
		if err := q.UpdateMedication(ctx, m); err != nil {
			return err
		}
		out = toMedication(m)
		e, err := dose.Evaluate(ctx, q, m, h.now())
		out.CanTakeNow, out.NextEligibleAt = e.Eligible, e.NextEligibleAt
		return err
	})
	if err != nil {
		return nil, h.fail(ctx, "UpdateMedication", apperr.Wrap(err, "update medication failed"))
	}
	h.history.Invalidate(ctx)
	return &api.MedicationResponse{Medication: out}, nil
}

func (h *Handler) DeleteMedication(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	err = h.db.WithTx(ctx, func(q store.Queries) error {
		if _, err := access.Medication(ctx, q, userID, req.ID, true); err != nil {
			return err
		}
		return q.DeleteMedication(ctx, req.ID)
	})
	if err != nil {
		return nil, h.fail(ctx, "DeleteMedication", apperr.Wrap(err, "delete medication failed"))
	}
	h.history.Invalidate(ctx)
	return &api.Empty{}, nil
}
