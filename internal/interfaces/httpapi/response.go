package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"

	sonic "github.com/bytedance/sonic"

	"github.com/fortifiedfantasy/fein-engine/external/espn"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/jobqueue"
	"github.com/fortifiedfantasy/fein-engine/internal/usecase"
)

const linkHintPath = "/api/link"

// errorResponse is the uniform failure envelope. NeedAuth marks an
// upstream token rejection so the front-end can prompt a relink.
type errorResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	NeedAuth bool   `json:"needAuth,omitempty"`
	Link     string `json:"link,omitempty"`
}

type mappedError struct {
	HTTPStatus int
	NeedAuth   bool
	Link       string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, errorResponse{
		OK:       false,
		Error:    err.Error(),
		NeedAuth: mapped.NeedAuth,
		Link:     mapped.Link,
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
		OK:    false,
		Error: "internal server error",
	})
}

// mapError folds service and provider failures into edge statuses.
// Upstream 4xx pass through verbatim so the caller sees what the
// provider said; upstream 5xx and transport timeouts become gateway
// errors so provider incidents do not read as our own.
func mapError(ctx context.Context, err error) mappedError {
	ctx, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	var fetchErr *espn.FetchError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{HTTPStatus: http.StatusBadRequest}
	case errors.Is(err, usecase.ErrMissingCredential):
		return mappedError{HTTPStatus: http.StatusUnauthorized, Link: linkHintPath}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{HTTPStatus: http.StatusUnauthorized}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{HTTPStatus: http.StatusNotFound}
	case errors.Is(err, usecase.ErrDependencyUnavailable),
		errors.Is(err, jobqueue.ErrSaturated),
		errors.Is(err, jobqueue.ErrClosed):
		return mappedError{HTTPStatus: http.StatusServiceUnavailable}
	case errors.As(err, &fetchErr):
		switch {
		case fetchErr.IsAuthStatus():
			return mappedError{HTTPStatus: fetchErr.Status, NeedAuth: true, Link: linkHintPath}
		case fetchErr.Status >= http.StatusBadRequest && fetchErr.Status < http.StatusInternalServerError:
			return mappedError{HTTPStatus: fetchErr.Status}
		default:
			return mappedError{HTTPStatus: http.StatusBadGateway}
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return mappedError{HTTPStatus: http.StatusGatewayTimeout}
	default:
		return mappedError{HTTPStatus: http.StatusInternalServerError}
	}
}
