package httpapi

import "context"

type contextKey string

const memberContextKey contextKey = "member_id"

func withMember(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, memberContextKey, memberID)
}

func memberFromContext(ctx context.Context) (string, bool) {
	memberID, ok := ctx.Value(memberContextKey).(string)
	if !ok || memberID == "" {
		return "", false
	}
	return memberID, true
}
