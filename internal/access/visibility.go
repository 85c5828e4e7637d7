package access

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/store"
)

// Visibility is the set of groups a user may see: the groups they own plus
// the groups shared with them. Owned groups and groups shared with canEdit
// are editable.
type Visibility struct {
	perms map[string]bool
}

func Resolve(ctx context.Context, q store.Queries, userID string) (Visibility, error) {
	perms, err := q.GroupPermissions(ctx, userID)
	if err != nil {
		return Visibility{}, fmt.Errorf("while resolving visible groups: %w", err)
	}
	return Visibility{perms: perms}, nil
}

func (v Visibility) CanView(groupID string) bool {
	_, ok := v.perms[groupID]
	return ok
}

func (v Visibility) CanEdit(groupID string) bool {
	return v.perms[groupID]
}

// GroupIDs returns the visible group ids in a stable order.
func (v Visibility) GroupIDs() []string {
	ids := make([]string, 0, len(v.perms))
	for id := range v.perms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Medication loads a medication the user can see, or can edit when edit is
// set. Missing and forbidden medications both report NotFound.
func Medication(ctx context.Context, q store.Queries, userID, medicationID string, edit bool) (*model.Medication, error) {
	med, err := q.MedicationByID(ctx, medicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFoundf("medication not found")
	}
	if err != nil {
		return nil, err
	}
	if err := Group(ctx, q, userID, med.GroupID, edit); apperr.Is(err, apperr.NotFound) {
		return nil, apperr.NotFoundf("medication not found")
	} else if err != nil {
		return nil, err
	}
	return med, nil
}

// Group checks that the user can see, or edit, a group.
func Group(ctx context.Context, q store.Queries, userID, groupID string, edit bool) error {
	v, err := Resolve(ctx, q, userID)
	if err != nil {
		return err
	}
	if !v.CanView(groupID) || (edit && !v.CanEdit(groupID)) {
		return apperr.NotFoundf("group not found")
	}
	return nil
}
