package api

import (
	"net/http"
	"net/url"

	"github.com/Rapptz/discord.py-sub002/utils/httputil"
	"github.com/Rapptz/discord.py-sub002/utils/httputil/httpdriver"
)

// AuditLogReason is the optional audit log reason on moderation endpoints.
type AuditLogReason string

// WithAuditLogReason attaches the reason to the request, where it ends up
// in the guild's audit log. An empty reason is a no-op.
func WithAuditLogReason(reason AuditLogReason) httputil.RequestOption {
	if reason == "" {
		return func(httpdriver.Request) error { return nil }
	}

	return func(r httpdriver.Request) error {
		r.AddHeader(http.Header{
			"X-Audit-Log-Reason": {url.PathEscape(string(reason))},
		})
		return nil
	}
}
