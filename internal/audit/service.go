package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-quoting/internal/db"
)

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg db.InsertAuditLogParams) (db.AuditLog, error)
	ListAuditLogs(ctx context.Context, limit, offset int32) ([]db.AuditLog, error)
}

// Service persists audit entries for schema administration and quote
// finalization.
type Service struct {
	Q       Store
	Enabled bool
}

// Record persists one audit entry when auditing is enabled. The action and
// resource type fall back to values derived from the request when empty.
func (s Service) Record(ctx context.Context, actor, action, resourceType, resourceID string, req *http.Request, status int, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Q == nil {
		return errors.New("audit: store not configured")
	}

	if actor == "" {
		actor = "anonymous"
	}
	if status == 0 {
		status = http.StatusOK
	}

	_, err := s.Q.InsertAuditLog(ctx, db.InsertAuditLogParams{
		Actor:        actor,
		Action:       buildAction(action, req.Method, req.URL.Path),
		ResourceType: buildResource(resourceType, req.URL.Path),
		ResourceID:   optional(resourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       int32(status),
		IP:           optional(clientIP(req)),
		UserAgent:    optional(req.Header.Get("User-Agent")),
		RequestID:    optional(req.Header.Get("X-Request-ID")),
		Metadata:     toMetadata(metadata, req.URL.RawQuery),
	})
	return err
}

func buildAction(action, method, path string) string {
	trimmed := strings.TrimSpace(action)
	if trimmed != "" {
		return trimmed
	}
	if path == "" {
		path = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + path
}

func buildResource(resourceType, path string) string {
	trimmed := strings.TrimSpace(resourceType)
	if trimmed != "" {
		return trimmed
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		return strings.Join(segments[2:], ".")
	}
	if joined := strings.Join(segments, "."); joined != "" {
		return joined
	}
	return "unknown"
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func clientIP(req *http.Request) string {
	if fwd := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func toMetadata(metadata []byte, query string) json.RawMessage {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
