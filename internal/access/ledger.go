// Package access records which users may view or edit another user's
// medication groups.
package access

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"medtrack-api/internal/apperr"
	"medtrack-api/internal/model"
	"medtrack-api/internal/notify"
	"medtrack-api/internal/store"
)

type Ledger struct {
	db        store.Backend
	sender    notify.Sender
	logger    *zap.Logger
	validate  *validator.Validate
	signInURL string
}

func NewLedger(db store.Backend, sender notify.Sender, logger *zap.Logger, appURL string) *Ledger {
	return &Ledger{
		db:        db,
		sender:    sender,
		logger:    logger,
		validate:  validator.New(),
		signInURL: strings.TrimRight(appURL, "/") + "/register",
	}
}

// NormalizeEmail lowercases and trims an address and checks its shape.
func (l *Ledger) NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := l.validate.Var(email, "required,email"); err != nil {
		return "", apperr.Validationf("invalid email address")
	}
	return email, nil
}

// GrantAccess shares each of groupIDs with the user registered under
// granteeEmail, creating a stub user and inviting them when there is none.
// If any group is not owned by ownerID nothing is written.
func (l *Ledger) GrantAccess(ctx context.Context, ownerID, granteeEmail string, groupIDs []string, canEdit bool) ([]model.AccessGrant, error) {
	email, err := l.NormalizeEmail(granteeEmail)
	if err != nil {
		return nil, err
	}
	ids := distinct(groupIDs)
	if len(ids) == 0 {
		return nil, apperr.Validationf("at least one group is required")
	}

	var (
		grants  []model.AccessGrant
		owner   *model.User
		groups  []model.MedicationGroup
		invited bool
	)
	err = l.db.WithTx(ctx, func(q store.Queries) error {
		owned, err := q.OwnedGroupIDs(ctx, ownerID, ids)
		if err != nil {
			return err
		}
		if len(owned) != len(ids) {
			return apperr.New(apperr.InvalidGroupReference, "invalid group ids")
		}

		if owner, err = q.UserByID(ctx, ownerID); err != nil {
			return err
		}

		grantee, err := q.UserByEmail(ctx, email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			grantee = &model.User{ID: uuid.New().String(), Email: email}
			if err := q.CreateUser(ctx, grantee); err != nil {
				return err
			}
			if err := q.UpsertPreferences(ctx, model.DefaultPreferences(grantee.ID)); err != nil {
				return err
			}
			invited = true
		case err != nil:
			return err
		case grantee.ID == ownerID:
			return apperr.Validationf("cannot grant access to yourself")
		}

		for _, groupID := range ids {
			g := model.AccessGrant{
				ID:          uuid.New().String(),
				GrantedByID: ownerID,
				GrantedToID: grantee.ID,
				GroupID:     groupID,
				CanEdit:     canEdit,
			}
			if err := q.CreateAccessGrant(ctx, &g); err != nil {
				return err
			}
			grants = append(grants, g)
		}

		if invited {
			groups, err = q.GroupsByIDs(ctx, ids)
		}
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "grant access failed")
	}

	l.logger.Info("access granted",
		zap.String("owner_id", ownerID),
		zap.String("grantee_id", grants[0].GrantedToID),
		zap.Int("groups", len(grants)),
		zap.Bool("can_edit", canEdit),
		zap.Bool("invited", invited),
	)

	if invited {
		l.invite(ctx, owner, email, groups, canEdit)
	}
	return grants, nil
}

// invite is best effort: a failed delivery leaves the grant and the stub
// user in place.
func (l *Ledger) invite(ctx context.Context, owner *model.User, email string, groups []model.MedicationGroup, canEdit bool) {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	inviter := owner.Name
	if inviter == "" {
		inviter = owner.Email
	}

	err := l.sender.Send(ctx, email, notify.Invitation, map[string]string{
		"inviter":   inviter,
		"groups":    strings.Join(names, ", "),
		"canEdit":   strconv.FormatBool(canEdit),
		"signInURL": l.signInURL + "?" + url.Values{"email": {email}}.Encode(),
	})
	if err != nil {
		l.logger.Warn("invitation not delivered", zap.String("to", email), zap.Error(err))
	}
}

// RevokeAccess deletes a grant. Either party to the grant may revoke it;
// for anyone else the grant does not exist.
func (l *Ledger) RevokeAccess(ctx context.Context, requesterID, grantID string) error {
	err := l.db.WithTx(ctx, func(q store.Queries) error {
		g, err := q.AccessGrantByID(ctx, grantID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFoundf("access grant not found")
		}
		if err != nil {
			return err
		}
		if g.GrantedByID != requesterID && g.GrantedToID != requesterID {
			return apperr.NotFoundf("access grant not found")
		}
		return q.DeleteAccessGrant(ctx, grantID)
	})
	if err != nil {
		return apperr.Wrap(err, "revoke access failed")
	}
	l.logger.Info("access revoked", zap.String("grant_id", grantID), zap.String("requester_id", requesterID))
	return nil
}

// ListAccess returns the grants the user gave and the grants they hold.
func (l *Ledger) ListAccess(ctx context.Context, userID string) ([]model.AccessGrantView, error) {
	var out []model.AccessGrantView
	err := l.db.ReadTx(ctx, func(q store.Queries) error {
		var err error
		out, err = q.ListAccessGrants(ctx, userID)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err, "list access failed")
	}
	return out, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
