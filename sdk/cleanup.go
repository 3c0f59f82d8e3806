package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// evalConcurrency bounds per-function evaluations within one cycle.
const evalConcurrency = 8

// functionAPI is the slice of the platform API the cleanup engine needs.
type functionAPI interface {
	GetFunction(ctx context.Context, functionID string) (*Function, error)
	DeleteFunction(ctx context.Context, functionID string) error
}

// CleanupManager tracks deployed functions with a cleanup policy and
// deletes those whose policy condition has been met. A function stays
// registered until a condition fires, the upstream record disappears, or
// the caller unregisters it.
type CleanupManager struct {
	api    functionAPI
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	policies map[string]CleanupPolicy

	runMu   sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewCleanupManager(api functionAPI) *CleanupManager {
	return &CleanupManager{
		api:      api,
		logger:   slog.Default(),
		now:      time.Now,
		policies: make(map[string]CleanupPolicy),
	}
}

// Register tracks a function under a policy. Re-registering replaces the
// prior policy.
func (m *CleanupManager) Register(functionID string, policy CleanupPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[functionID] = policy
}

// Unregister stops tracking a function. Unknown ids are a no-op.
func (m *CleanupManager) Unregister(functionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.policies, functionID)
}

// Registered returns the tracked function ids, sorted.
func (m *CleanupManager) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.policies))
	for id := range m.policies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EvaluateAll checks every registered function against its policy and
// deletes those whose condition is met, returning the deleted ids.
// Fetch or delete failures are logged and retried on the next cycle;
// an upstream not-found just unregisters the id.
func (m *CleanupManager) EvaluateAll(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	snapshot := make(map[string]CleanupPolicy, len(m.policies))
	for id, policy := range m.policies {
		snapshot[id] = policy
	}
	m.mu.Unlock()

	var (
		deletedMu sync.Mutex
		deleted   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evalConcurrency)
	for id, policy := range snapshot {
		id, policy := id, policy
		g.Go(func() error {
			removed, err := m.evaluate(gctx, id, policy)
			if err != nil {
				m.logger.Warn("cleanup evaluation failed", "function_id", id, "error", err)
				return nil
			}
			if removed {
				deletedMu.Lock()
				deleted = append(deleted, id)
				deletedMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return deleted, err
	}

	sort.Strings(deleted)
	return deleted, nil
}

func (m *CleanupManager) evaluate(ctx context.Context, id string, policy CleanupPolicy) (bool, error) {
	fn, err := m.api.GetFunction(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFunctionNotFound) {
			// Already gone upstream.
			m.Unregister(id)
			return false, nil
		}
		return false, fmt.Errorf("fetch metadata: %w", err)
	}

	reason := m.dueReason(fn, policy)
	if reason == "" {
		return false, nil
	}

	if err := m.api.DeleteFunction(ctx, id); err != nil {
		// Keep it registered so the next cycle retries.
		return false, fmt.Errorf("delete (%s): %w", reason, err)
	}

	m.Unregister(id)
	m.logger.Info("function cleaned up", "function_id", id, "reason", reason)
	return true, nil
}

// dueReason returns why a function should be deleted, or "" when no
// condition is met. Conditions are checked TTL first, then execution
// count, then idle time.
func (m *CleanupManager) dueReason(fn *Function, policy CleanupPolicy) string {
	now := m.now()

	if policy.TTL > 0 && now.Sub(fn.CreatedAt) > policy.TTL {
		return "ttl"
	}
	if policy.MaxExecutions > 0 && fn.ExecutionCount >= policy.MaxExecutions {
		return "max_executions"
	}
	// Idle only applies once the function has executed at least once; a
	// never-executed function is governed by TTL, not idleness.
	if policy.Idle > 0 && fn.LastExecutedAt != nil && now.Sub(*fn.LastExecutedAt) > policy.Idle {
		return "idle"
	}
	return ""
}

// Start begins periodic evaluation at the given interval. Calling Start
// while already running is a no-op with a warning.
func (m *CleanupManager) Start(interval time.Duration) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.running {
		m.logger.Warn("cleanup manager already running")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if _, err := m.EvaluateAll(ctx); err != nil {
			m.logger.Warn("cleanup cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}

	c.Start()
	m.cron = c
	m.running = true
	return nil
}

// Stop halts the schedule and blocks until an in-flight evaluation
// finishes. Stopping an idle manager is a no-op.
func (m *CleanupManager) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
	m.running = false
}
