// Package scope moves tenant identity between a context.Context and the
// app/org fields stored on a process run.
//
// Identity travels through forge.WithScope and forge.ScopeFrom, so a run
// started from a request handler records the caller's tenant and its
// handler executes under the same tenant on resume.
package scope

import (
	"context"
	"log/slog"

	"github.com/xraph/forge"
)

// Capture extracts the app and org identifiers from the context.
// Both are empty when no scope is present.
func Capture(ctx context.Context) (appID, orgID string) {
	s, ok := forge.ScopeFrom(ctx)
	if !ok {
		return "", ""
	}
	return s.AppID(), s.OrgID()
}

// Restore attaches a scope built from appID and orgID. With both empty
// the context is returned unchanged.
func Restore(ctx context.Context, appID, orgID string) context.Context {
	if appID == "" && orgID == "" {
		return ctx
	}
	var s forge.Scope
	if orgID != "" {
		s = forge.NewOrgScope(appID, orgID)
	} else {
		s = forge.NewAppScope(appID)
	}
	return forge.WithScope(ctx, s)
}

// LogAttrs returns the tenant of ctx as log attributes, or nil.
func LogAttrs(ctx context.Context) []slog.Attr {
	appID, orgID := Capture(ctx)
	var attrs []slog.Attr
	if appID != "" {
		attrs = append(attrs, slog.String("app_id", appID))
	}
	if orgID != "" {
		attrs = append(attrs, slog.String("org_id", orgID))
	}
	return attrs
}
