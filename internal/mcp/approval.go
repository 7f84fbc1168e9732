package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
)

// EventEmitter allows the approval queue to notify listeners.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"

	DefaultApprovalTimeout = 120 * time.Second
)

// ApprovalQueue gates publishing tool calls behind a human decision. Requests
// are written to the approvals table and polled until the HTTP editor API,
// possibly running in another process, approves or rejects them.
type ApprovalQueue struct {
	ctx      context.Context
	store    domain.ApprovalStore
	emitter  EventEmitter
	timeout  time.Duration
	interval time.Duration
}

func NewApprovalQueue(ctx context.Context, store domain.ApprovalStore, emitter EventEmitter, timeout time.Duration) *ApprovalQueue {
	if timeout <= 0 {
		timeout = DefaultApprovalTimeout
	}
	return &ApprovalQueue{
		ctx:      ctx,
		store:    store,
		emitter:  emitter,
		timeout:  timeout,
		interval: 500 * time.Millisecond,
	}
}

// Request records an approval request and blocks until approved, rejected or
// timed out. A nil queue approves everything.
func (q *ApprovalQueue) Request(tool, description string, metadata ...string) (bool, error) {
	if q == nil {
		return true, nil
	}
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}

	log.Info(log.CatMCP, "approval requested", "id", id, "tool", tool)
	return q.requestViaStore(id, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(id, tool, description, metadata string) (bool, error) {
	err := q.store.CreateApproval(&domain.Approval{
		ID:          id,
		Tool:        tool,
		Description: description,
		Metadata:    metadata,
	})
	if err != nil {
		return false, err
	}
	defer func() { _ = q.store.DeleteApproval(id) }()

	deadline := time.Now().Add(q.timeout)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Now().After(deadline) {
				if q.emitter != nil {
					q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
				}
				return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
			}
			status, err := q.store.ApprovalStatus(id)
			if err != nil {
				continue
			}
			switch status {
			case domain.ApprovalApproved:
				return true, nil
			case domain.ApprovalRejected:
				return false, fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-q.ctx.Done():
			return false, fmt.Errorf("context cancelled")
		}
	}
}
