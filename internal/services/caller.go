package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/ctxutil"
)

var errNotAuthenticated = apierr.Unauthorized("unauthorized", "Not authenticated")

// callerID returns the authenticated user attached by the auth middleware.
func callerID(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, errNotAuthenticated
	}
	return rd.UserID, nil
}
