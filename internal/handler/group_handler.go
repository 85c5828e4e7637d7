package handler

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medtrack-api/internal/access"
	"medtrack-api/internal/api"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// ListGroups returns the caller's own groups and the groups shared with
// them, each with its medications.
func (h *Handler) ListGroups(ctx context.Context, _ *api.Empty) (*api.ListGroupsResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}

	resp := &api.ListGroupsResponse{Groups: []api.Group{}}
	err = h.db.ReadTx(ctx, func(q store.Queries) error {
		v, err := access.Resolve(ctx, q, userID)
		if err != nil {
			return err
		}
		groups, err := q.GroupsByIDs(ctx, v.GroupIDs())
		if err != nil {
			return err
		}
		meds, err := h.medicationViews(ctx, q, v, v.GroupIDs())
		if err != nil {
			return err
		}

		byGroup := make(map[string][]api.Medication)
		for _, m := range meds {
			byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
		}
		for i := range groups {
			g := toGroup(&groups[i])
			g.IsOwner = g.UserID == userID
			g.CanEdit = v.CanEdit(g.ID)
			if ms, ok := byGroup[g.ID]; ok {
				g.Medications = ms
			}
			resp.Groups = append(resp.Groups, g)
		}
		return nil
	})
	if err != nil {
		return nil, h.fail(ctx, "ListGroups", apperr.Wrap(err, "list groups failed"))
	}
	return resp, nil
}

func (h *Handler) CreateGroup(ctx context.Context, req *api.CreateGroupRequest) (*api.GroupResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	g := &model.MedicationGroup{
		ID:     uuid.New().String(),
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		return q.CreateGroup(ctx, g)
	})
	if err != nil {
		return nil, h.fail(ctx, "CreateGroup", apperr.Wrap(err, "create group failed"))
	}

	out := toGroup(g)
	out.IsOwner, out.CanEdit = true, true
	return &api.GroupResponse{Group: out}, nil
}

// ownedGroup loads a group the user owns. Groups of other users do not
// exist as far as the caller can tell.
func ownedGroup(ctx context.Context, q store.Queries, userID, groupID string) (*model.MedicationGroup, error) {
	g, err := q.GroupByID(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && g.UserID != userID) {
		return nil, apperr.NotFoundf("group not found")
	}
	return g, err
}

func (h *Handler) UpdateGroup(ctx context.Context, req *api.UpdateGroupRequest) (*api.GroupResponse, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	var g *model.MedicationGroup
	err = h.db.WithTx(ctx, func(q store.Queries) error {
		if g, err = ownedGroup(ctx, q, userID, req.ID); err != nil {
			return err
		}
		g.Name, g.Color, g.Icon = req.Name, req.Color, req.Icon
		if req.DisplayOrder != nil {
			g.DisplayOrder = *req.DisplayOrder
		}
		return q.UpdateGroup(ctx, g)
	})
	if err != nil {
		return nil, h.fail(ctx, "UpdateGroup", apperr.Wrap(err, "update group failed"))
	}
	h.history.Invalidate(ctx)

	out := toGroup(g)
	out.IsOwner, out.CanEdit = true, true
	return &api.GroupResponse{Group: out}, nil
}

// DeleteGroup removes a group with its medications, their doses and the
// grants on it.
func (h *Handler) DeleteGroup(ctx context.Context, req *api.IDRequest) (*api.Empty, error) {
	userID, err := uid(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.check(req); err != nil {
		return nil, err
	}

	err = h.db.WithTx(ctx, func(q store.Queries) error {
		if _, err := ownedGroup(ctx, q, userID, req.ID); err != nil {
			return err
		}
		return q.DeleteGroup(ctx, req.ID)
	})
	if err != nil {
		return nil, h.fail(ctx, "DeleteGroup", apperr.Wrap(err, "delete group failed"))
	}
	h.history.Invalidate(ctx)
	h.logger.Info("group deleted", zap.String("group_id", req.ID), zap.String("user_id", userID))
	return &api.Empty{}, nil
}
