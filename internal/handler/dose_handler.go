package handler

import (
	"context"

	"medtrack-api/internal/api"
	"medtrack-api/internal/dose"
)

func (h *Handler) RecordDose(ctx context.Context, req *api.RecordDoseRequest) (*api.DoseResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	d, err := h.doses.RecordDose(ctx, userID, dose.RecordInput{
		MedicationID: req.MedicationID,
		Timestamp:    req.Timestamp,
		Notes:        req.Notes,
		Skipped:      req.Skipped,
	})
	if err != nil {
		return nil, h.fail(ctx, "RecordDose", err)
	}
	h.history.Invalidate(ctx)
	return &api.DoseResponse{Dose: toDose(d)}, nil
}

func (h *Handler) ListDoses(ctx context.Context, req *api.MedicationRequest) (*api.ListDosesResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	doses, err := h.doses.ListDoses(ctx, userID, req.MedicationID)
	if err != nil {
		return nil, h.fail(ctx, "ListDoses", err)
	}
	resp := &api.ListDosesResponse{Doses: make([]api.Dose, 0, len(doses))}
	for i := range doses {
		resp.Doses = append(resp.Doses, toDose(&doses[i]))
	}
	return resp, nil
}

func (h *Handler) DeleteDose(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	if err := h.doses.DeleteDose(ctx, userID, req.ID); err != nil {
		return nil, h.fail(ctx, "DeleteDose", err)
	}
	h.history.Invalidate(ctx)
	return &api.Empty{}, nil
}

func (h *Handler) CanRecordDose(ctx context.Context, req *api.MedicationRequest) (*api.EligibilityResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	e, err := h.doses.CanRecordDose(ctx, userID, req.MedicationID)
	if err != nil {
		return nil, h.fail(ctx, "CanRecordDose", err)
	}
	return &api.EligibilityResponse{Eligible: e.Eligible, NextEligibleAt: e.NextEligibleAt}, nil
}
