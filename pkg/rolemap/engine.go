package rolemap

import (
	"context"
	"fmt"
	"sync"

	"github.com/platinummonkey/membergate/pkg/authorizer"
	"github.com/platinummonkey/membergate/pkg/identity"
	"github.com/platinummonkey/membergate/pkg/observability"
)

// Engine is the login-event subscriber that synchronizes managed roles.
type Engine struct {
	mu              sync.RWMutex
	providerID      string
	membershipField string
	requireActive   bool
	rules           []Rule

	accounts authorizer.AccountStore
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewEngine builds the engine from the mapping-capable provider's
// configuration. Malformed mapping entries are logged and skipped.
func NewEngine(cfg identity.Config, accounts authorizer.AccountStore, logger *observability.Logger, metrics *observability.Metrics) *Engine {
	e := &Engine{
		accounts: accounts,
		logger:   logger,
		metrics:  metrics,
	}
	e.Update(cfg)
	return e
}

// Update swaps in a provider configuration, so a providers-file reload takes
// effect on subsequent logins.
func (e *Engine) Update(cfg identity.Config) {
	rules, malformed := ParseMapping(cfg.PermissionsMapping)
	for _, entry := range malformed {
		e.logger.WithField("entry", entry).Warn("skipping malformed permissions mapping entry")
	}
	e.mu.Lock()
	e.providerID = cfg.ID
	e.membershipField = cfg.MembershipField
	e.requireActive = cfg.RequireActive
	e.rules = rules
	e.mu.Unlock()
}

// Name implements authorizer.Subscriber.
func (e *Engine) Name() string { return "rolemap" }

// OnLogin synchronizes the account's managed roles from the event's member
// object. Events from other providers, or events without membership data,
// are ignored.
func (e *Engine) OnLogin(ctx context.Context, event *authorizer.LoginEvent) error {
	e.mu.RLock()
	providerID := e.providerID
	membershipField := e.membershipField
	requireActive := e.requireActive
	rules := e.rules
	e.mu.RUnlock()

	if event.ProviderID != providerID || event.Account == nil {
		return nil
	}
	member, ok := event.ExtraData["member"].(map[string]interface{})
	if !ok {
		return nil
	}

	value, err := membershipValueOf(member, membershipField)
	if err != nil {
		return fmt.Errorf("read membership field %q: %w", membershipField, err)
	}

	candidates := Resolve(rules, value, requireActive)
	final := Sync(event.Account.Roles, candidates)

	if err := e.accounts.ReplaceRoles(ctx, event.Account.ID, final); err != nil {
		e.metrics.RoleSyncsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("persist roles: %w", err)
	}
	event.Account.Roles = final

	e.metrics.RoleSyncsTotal.WithLabelValues("success").Inc()
	e.logger.WithFields(map[string]interface{}{
		"account":    event.Account.ID,
		"membership": value,
		"roles":      candidates,
	}).Info("synchronized gated-content roles")
	return nil
}
