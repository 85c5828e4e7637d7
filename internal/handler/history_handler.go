package handler

import (
	"context"
	"time"

	"medtrack-api/internal/api"
	"medtrack-api/internal/model"
)

func (h *Handler) GetHistory(ctx context.Context, req *api.HistoryRequest) (*api.HistoryResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	f := model.HistoryFilter{
		MedicationIDs: req.MedicationIDs,
		GroupIDs:      req.GroupIDs,
		Status:        model.DoseStatus(req.Status),
		TimeOfDay:     model.TimeOfDay(req.TimeOfDay),
		Search:        req.Search,
		SortField:     model.SortField(req.SortField),
		SortDirection: model.SortDirection(req.SortDirection),
		Page:          req.Page,
		Limit:         req.Limit,
	}
	if req.StartDate != nil {
		f.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		f.EndDate = *req.EndDate
	}

	page, err := h.history.Query(ctx, userID, f)
	if err != nil {
		return nil, h.fail(ctx, "GetHistory", err)
	}

	resp := &api.HistoryResponse{
		Records:    make([]api.HistoryEntry, 0, len(page.Records)),
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	}
	for i := range page.Records {
		resp.Records = append(resp.Records, toEntry(&page.Records[i]))
	}
	return resp, nil
}

func (h *Handler) GetStats(ctx context.Context, _ *api.Empty) (*api.StatsResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}

	days, err := h.history.Stats(ctx, userID)
	if err != nil {
		return nil, h.fail(ctx, "GetStats", err)
	}

	resp := &api.StatsResponse{Days: make([]api.DayStats, 0, len(days))}
	for _, d := range days {
		resp.Days = append(resp.Days, api.DayStats{
			Date:    d.Date.Format(time.DateOnly),
			Taken:   d.Taken,
			Skipped: d.Skipped,
		})
		resp.TotalTaken += d.Taken
		resp.TotalSkipped += d.Skipped
	}
	return resp, nil
}
