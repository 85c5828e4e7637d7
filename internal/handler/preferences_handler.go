package handler

import (
	"context"
	"errors"
	"time"

	"medtrack-api/internal/api"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// preferences loads the user's preferences, creating the defaults on first
// access.
func preferences(ctx context.Context, q store.Queries, userID string) (*model.UserPreferences, error) {
	p, err := q.Preferences(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		p = model.DefaultPreferences(userID)
		return p, q.UpsertPreferences(ctx, p)
	}
	return p, err
}

func (h *Handler) GetPreferences(ctx context.Context, _ *api.Empty) (*api.PreferencesResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}

	var p *model.UserPreferences
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		p, err = preferences(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, h.fail(ctx, "GetPreferences", apperr.Wrap(err, "load preferences failed"))
	}
	return &api.PreferencesResponse{Preferences: toPreferences(p)}, nil
}

// UpdatePreferences changes only the fields present in the request.
func (h *Handler) UpdatePreferences(ctx context.Context, req *api.UpdatePreferencesRequest) (*api.PreferencesResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, h.fail(ctx, "UpdatePreferences", apperr.Validationf("unknown timezone %q", *req.Timezone))
		}
	}

	var (
		p         *model.UserPreferences
		zoneMoved bool
	)
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		if p, err = preferences(ctx, q, userID); err != nil {
			return err
		}
		before := p.Timezone
		merge(p, req)
		zoneMoved = p.Timezone != before
		return q.UpsertPreferences(ctx, p)
	})
	if err != nil {
		return nil, h.fail(ctx, "UpdatePreferences", apperr.Wrap(err, "update preferences failed"))
	}
	// history caches the viewer's zone
	if zoneMoved {
		h.history.Invalidate(ctx)
	}
	return &api.PreferencesResponse{Preferences: toPreferences(p)}, nil
}

func merge(p *model.UserPreferences, req *api.UpdatePreferencesRequest) {
	set(&p.Theme, req.Theme)
	set(&p.Timezone, req.Timezone)
	set(&p.EmailNotifications, req.EmailNotifications)
	set(&p.PushNotifications, req.PushNotifications)
	set(&p.ReminderTime, req.ReminderTime)
	set(&p.ReminderBuffer, req.ReminderBuffer)
	set(&p.SoundEnabled, req.SoundEnabled)
	set(&p.VibrationEnabled, req.VibrationEnabled)
	set(&p.ColorScheme, req.ColorScheme)
	set(&p.FontSize, req.FontSize)
	set(&p.UseHighContrast, req.UseHighContrast)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
