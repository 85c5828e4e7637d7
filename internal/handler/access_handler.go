package handler

import (
	"context"

	"medtrack-api/internal/api"
)

// GrantAccess shares the listed groups with the user behind an e-mail
// address, inviting them if they have no account yet.
func (h *Handler) GrantAccess(ctx context.Context, req *api.GrantAccessRequest) (*api.GrantAccessResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	grants, err := h.ledger.GrantAccess(ctx, userID, req.Email, req.GroupIDs, req.CanEdit)
	if err != nil {
		return nil, h.fail(ctx, "GrantAccess", err)
	}
	h.history.Invalidate(ctx)

	resp := &api.GrantAccessResponse{Grants: make([]api.AccessGrant, 0, len(grants))}
	for i := range grants {
		resp.Grants = append(resp.Grants, toGrant(&grants[i]))
	}
	return resp, nil
}

func (h *Handler) RevokeAccess(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	if err := h.ledger.RevokeAccess(ctx, userID, req.ID); err != nil {
		return nil, h.fail(ctx, "RevokeAccess", err)
	}
	h.history.Invalidate(ctx)
	return &api.Empty{}, nil
}

// ListAccess splits the caller's grants into those they gave and those
// they received.
func (h *Handler) ListAccess(ctx context.Context, _ *api.Empty) (*api.ListAccessResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}

	views, err := h.ledger.ListAccess(ctx, userID)
	if err != nil {
		return nil, h.fail(ctx, "ListAccess", err)
	}

	resp := &api.ListAccessResponse{Given: []api.AccessGrant{}, Received: []api.AccessGrant{}}
	for i := range views {
		g := toGrantView(&views[i])
		if g.GrantedByID == userID {
			resp.Given = append(resp.Given, g)
		} else {
			resp.Received = append(resp.Received, g)
		}
	}
	return resp, nil
}
