package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medtrack-api/internal/api"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/auth"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// Register creates an account, or completes the account of a user who was
// invited through an access grant.
func (h *Handler) Register(ctx context.Context, req *api.RegisterRequest) (*api.AuthResponse, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	var (
		u    *model.User
		resp *api.AuthResponse
	)
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		existing, err := q.UserByEmail(ctx, email)
		switch {
		case err == nil && !existing.Stub():
			// don't reveal which e-mails are registered
			return apperr.New(apperr.Conflict, "registration failed")
		case err == nil:
			if err := q.ClaimUser(ctx, existing.ID, hash, req.Name); err != nil {
				return err
			}
			u = existing
		case errors.Is(err, store.ErrNotFound):
			u = &model.User{ID: uuid.New().String(), Email: email, PasswordHash: hash, Name: req.Name}
			if err := q.CreateUser(ctx, u); errors.Is(err, store.ErrDuplicate) {
				return apperr.New(apperr.Conflict, "registration failed")
			} else if err != nil {
				return err
			}
			if err := q.UpsertPreferences(ctx, model.DefaultPreferences(u.ID)); err != nil {
				return err
			}
		default:
			return err
		}
		u.Name = req.Name
		resp, err = h.issue(ctx, q, u)
		return err
	})
	if err != nil {
		return nil, h.fail(ctx, "Register", apperr.Wrap(err, "register failed"))
	}

	h.logger.Info("user registered", zap.String("user_id", u.ID))
	return resp, nil
}

func (h *Handler) Login(ctx context.Context, req *api.LoginRequest) (*api.AuthResponse, error) {
	if err := h.check(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}

	var resp *api.AuthResponse
	err := h.db.WithTx(ctx, func(q store.Queries) error {
		u, err := q.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
		if errors.Is(err, store.ErrNotFound) {
			return errBadCredentials
		}
		if err != nil {
			return err
		}
		if !auth.CheckPassword(u.PasswordHash, req.Password) {
			return errBadCredentials
		}
		resp, err = h.issue(ctx, q, u)
		return err
	})
	if errors.Is(err, errBadCredentials) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}
	if err != nil {
		return nil, h.fail(ctx, "Login", apperr.Wrap(err, "login failed"))
	}
	return resp, nil
}

var errBadCredentials = errors.New("invalid credentials")

// Refresh trades a refresh token for a new token pair. Presenting a token
// that was already rotated revokes every token of its user.
func (h *Handler) Refresh(ctx context.Context, req *api.RefreshRequest) (*api.AuthResponse, error) {
	if err := h.check(req); err != nil {
		return nil, err
	}

	var (
		resp   *api.AuthResponse
		reused bool
	)
	err := h.db.WithTx(ctx, func(q store.Queries) error {
		old, err := q.RefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
		if errors.Is(err, store.ErrNotFound) {
			return errBadCredentials
		}
		if err != nil {
			return err
		}
		if old.Revoked {
			reused = true
			return q.RevokeAllRefreshTokens(ctx, old.UserID)
		}
		if h.now().After(old.ExpiresAt) {
			return errBadCredentials
		}

		u, err := q.UserByID(ctx, old.UserID)
		if err != nil {
			return err
		}
		raw, hash, err := auth.GenerateRefreshToken()
		if err != nil {
			return err
		}
		if err := q.RotateRefreshToken(ctx, old.ID, uuid.New().String(), u.ID, hash, h.now().Add(auth.RefreshTTL)); err != nil {
			return err
		}
		tok, err := auth.MakeToken(u.ID, h.secret)
		if err != nil {
			return err
		}
		resp = &api.AuthResponse{UserID: u.ID, Name: u.Name, Token: tok, RefreshToken: raw}
		return nil
	})
	if reused && err == nil {
		h.logger.Warn("revoked refresh token presented, revoking all sessions")
		err = errBadCredentials
	}
	if errors.Is(err, errBadCredentials) {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if err != nil {
		return nil, h.fail(ctx, "Refresh", apperr.Wrap(err, "refresh failed"))
	}
	return resp, nil
}

// Logout revokes every refresh token of the caller. Access tokens expire
// on their own.
func (h *Handler) Logout(ctx context.Context, _ *api.Empty) (*api.Empty, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		return q.RevokeAllRefreshTokens(ctx, userID)
	})
	if err != nil {
		return nil, h.fail(ctx, "Logout", apperr.Wrap(err, "logout failed"))
	}
	return &api.Empty{}, nil
}

func (h *Handler) issue(ctx context.Context, q store.Queries, u *model.User) (*api.AuthResponse, error) {
	tok, err := auth.MakeToken(u.ID, h.secret)
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if _, err := q.CreateRefreshToken(ctx, u.ID, hash, h.now().Add(auth.RefreshTTL)); err != nil {
		return nil, err
	}
	return &api.AuthResponse{UserID: u.ID, Name: u.Name, Token: tok, RefreshToken: raw}, nil
}
