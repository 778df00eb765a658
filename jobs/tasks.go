package jobs

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEnsureSuperAdmin resets the configured administrator's grants.
	TaskEnsureSuperAdmin = "permissions:ensure_super_admin"
	// TaskInvalidateResolveCache drops every cached permission resolution.
	TaskInvalidateResolveCache = "permissions:invalidate_cache"
)

// EnsureSuperAdminPayload names the administrator account and the content
// types that receive a global grant.
type EnsureSuperAdminPayload struct {
	Email        string   `json:"email"`
	ContentTypes []string `json:"content_types,omitempty"`
}

// NewEnsureSuperAdminTask constructs an Asynq task. Retries are left to the
// queue default because the handler is idempotent.
func NewEnsureSuperAdminTask(payload EnsureSuperAdminPayload) (*asynq.Task, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Email == "" {
		return nil, errors.New("jobs: ensure super admin: email required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnsureSuperAdmin, data), nil
}

// NewInvalidateResolveCacheTask constructs a payload-less Asynq task.
func NewInvalidateResolveCacheTask() *asynq.Task {
	return asynq.NewTask(TaskInvalidateResolveCache, nil)
}
