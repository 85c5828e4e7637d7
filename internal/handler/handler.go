// Package handler implements api.MedTrackServer on top of the store and
// the access, dose and history services.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medtrack-api/internal/access"
	"medtrack-api/internal/api"
	"medtrack-api/internal/apperr"
	"medtrack-api/internal/dose"
	"medtrack-api/internal/history"
	"medtrack-api/internal/middleware"
	"medtrack-api/internal/store"
)

type Handler struct {
	db       store.Backend
	ledger   *access.Ledger
	doses    *dose.Service
	history  *history.Service
	secret   string
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

var _ api.MedTrackServer = (*Handler)(nil)

func New(db store.Backend, ledger *access.Ledger, doses *dose.Service, hist *history.Service, secret string, logger *zap.Logger) *Handler {
	return &Handler{
		db:       db,
		ledger:   ledger,
		doses:    doses,
		history:  hist,
		secret:   secret,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

func uid(ctx context.Context) (string, error) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "not signed in")
	}
	return id, nil
}

// check validates a request against its struct tags.
func (h *Handler) check(req any) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return status.Error(codes.InvalidArgument, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be an e-mail address"
	case "hexcolor":
		return field + " must be a hex color"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param())
	}
	return field + " is invalid"
}

// fail converts a service error into a gRPC status. Causes of transient
// failures are logged and not returned.
func (h *Handler) fail(ctx context.Context, method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		h.logger.Error("unclassified failure", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}

	switch ae.Code {
	case apperr.Validation, apperr.InvalidGroupReference:
		return status.Error(codes.InvalidArgument, ae.Message)
	case apperr.NotFound:
		return status.Error(codes.NotFound, ae.Message)
	case apperr.Conflict:
		return status.Error(codes.AlreadyExists, ae.Message)
	case apperr.NotEligible:
		msg := ae.Message
		if ae.NextEligibleAt != nil {
			msg = fmt.Sprintf("%s; next dose allowed at %s", msg, ae.NextEligibleAt.UTC().Format(time.RFC3339))
		}
		return status.Error(codes.FailedPrecondition, msg)
	}

	h.logger.Error("storage failure", zap.String("method", method), zap.Error(err))
	return status.Error(codes.Unavailable, "service temporarily unavailable")
}
