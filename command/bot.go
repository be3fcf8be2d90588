/*
Package command turns free-text chat messages into budget operations.

PURPOSE:
  A message is lowercased, trimmed and matched against a dispatch table
  keyed by string prefixes (or exact strings). The first matching command
  extracts its fields with the rules in parse.go and calls the store.

RESPONSES:
  - Malformed commands return a usage string, never an error
  - Unknown references ("no such ldap") return a friendly string
  - Genuine failures (storage errors, constraint violations, illegal state
    changes) are returned as errors; the HTTP layer maps them to 400

SEE ALSO:
  - parse.go: Field extraction rules
  - api/handlers.go: POST /api/chat
*/
package command

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warp/budgetbot/budget"
)

// NotRecognized is returned for messages that match no command.
const NotRecognized = "Command not recognized. Type 'help' for available commands."

// Command is one entry of the dispatch table.
type Command struct {
	Name  string
	match func(msg string) bool
	run   func(ctx context.Context, msg string) (string, error)
}

func prefix(p string) func(string) bool {
	return func(msg string) bool { return strings.HasPrefix(msg, p) }
}

func exact(s string) func(string) bool {
	return func(msg string) bool { return msg == s }
}

// Bot dispatches chat messages.
type Bot struct {
	store    budget.Store
	now      func() time.Time
	log      *zap.Logger
	commands []Command
}

// Option configures a Bot.
type Option func(*Bot)

// WithClock overrides the clock used for budget IDs.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bot) { b.log = l }
}

// New creates a Bot backed by store.
func New(store budget.Store, opts ...Option) *Bot {
	b := &Bot{
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	// Order matters: the first match wins.
	b.commands = []Command{
		{Name: "add_user", match: prefix("add user"), run: b.addUser},
		{Name: "show_organization", match: prefix("show me my organization"), run: b.showOrganization},
		{Name: "add_aop", match: prefix("add aop"), run: b.addAOP},
		{Name: "add_budget", match: prefix("add budget"), run: b.addBudget},
		{Name: "add_cost_center", match: prefix("add cost center"), run: b.addCostCenter},
		{Name: "allocate_aop", match: prefix("allocate aop"), run: b.allocateAOP},
		{Name: "show_aop", match: prefix("show aop"), run: b.showAOP},
		{Name: "set_aop_state", match: prefix("set aop"), run: b.setAOPState},
		{Name: "set_manager", match: prefix("set manager"), run: b.setManager},
		{Name: "deactivate_user", match: prefix("deactivate user"), run: b.deactivateUser},
		{Name: "list_users", match: exact("list users"), run: b.listUsers},
		{Name: "list_aops", match: exact("list aops"), run: b.listAOPs},
		{Name: "list_cost_centers", match: exact("list cost centers"), run: b.listCostCenters},
		{Name: "list_budgets", match: prefix("list budgets"), run: b.listBudgets},
		{Name: "help", match: exact("help"), run: b.help},
	}
	return b
}

// Normalize lowercases and trims a raw message.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// Handle runs one chat message and returns the response text.
func (b *Bot) Handle(ctx context.Context, message string) (string, error) {
	msg := Normalize(message)

	for _, c := range b.commands {
		if !c.match(msg) {
			continue
		}
		b.log.Debug("dispatching chat command", zap.String("command", c.Name))
		resp, err := c.run(ctx, msg)
		if err != nil {
			b.log.Warn("chat command failed", zap.String("command", c.Name), zap.Error(err))
			return "", err
		}
		return resp, nil
	}

	b.log.Debug("unrecognized chat command", zap.String("message", msg))
	return NotRecognized, nil
}

// Match returns the name of the command msg would dispatch to, or "".
func (b *Bot) Match(message string) string {
	msg := Normalize(message)
	for _, c := range b.commands {
		if c.match(msg) {
			return c.Name
		}
	}
	return ""
}
