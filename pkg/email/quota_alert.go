package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/usage"
)

// defaultAlertThreshold triggers a warning once a metered quota passes
// ninety percent.
const defaultAlertThreshold = 0.9

// AddressLookup resolves a user's notification address.
type AddressLookup func(ctx context.Context, userID uuid.UUID) (string, error)

// Alerter emails users approaching a quota. Each (user, limit, billing
// month) triggers at most one email, so a user hovering at 95% is warned
// once and then left alone until the window resets.
type Alerter struct {
	sender    Sender
	lookup    AddressLookup
	threshold float64
	now       func() time.Time
	logger    *slog.Logger

	mu   sync.Mutex
	sent map[string]struct{}
}

// AlerterOption configures an Alerter.
type AlerterOption func(*Alerter)

// WithAlertThreshold overrides the usage fraction that triggers an email.
func WithAlertThreshold(fraction float64) AlerterOption {
	return func(a *Alerter) {
		if fraction > 0 && fraction <= 1 {
			a.threshold = fraction
		}
	}
}

// WithAlerterLogger sets the alerter's logger.
func WithAlerterLogger(log *slog.Logger) AlerterOption {
	return func(a *Alerter) {
		if log != nil {
			a.logger = log
		}
	}
}

// WithAlerterClock replaces the time source, for tests.
func WithAlerterClock(now func() time.Time) AlerterOption {
	return func(a *Alerter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAlerter creates a quota alerter.
func NewAlerter(sender Sender, lookup AddressLookup, opts ...AlerterOption) *Alerter {
	a := &Alerter{
		sender:    sender,
		lookup:    lookup,
		threshold: defaultAlertThreshold,
		now:       time.Now,
		logger:    slog.Default(),
		sent:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Observe inspects a usage snapshot map and emails the user about every
// finite quota at or past the threshold that has not been alerted this
// month. Failures are logged, never returned: alerting is best effort and
// must not affect the flow that produced the snapshots.
func (a *Alerter) Observe(ctx context.Context, userID uuid.UUID, snapshots map[plans.LimitKey]usage.Snapshot) {
	var due []plans.LimitKey
	for key, snap := range snapshots {
		if a.shouldAlert(userID, key, snap) {
			due = append(due, key)
		}
	}
	if len(due) == 0 {
		return
	}

	addr, err := a.lookup(ctx, userID)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "quota alert skipped, address lookup failed",
			logger.UserID(userID.String()), logger.Error(err))
		a.forget(userID, due)
		return
	}

	for _, key := range due {
		snap := snapshots[key]
		if err := a.sender.Send(ctx, quotaAlertMessage(addr, key, snap)); err != nil {
			a.logger.LogAttrs(ctx, slog.LevelWarn, "quota alert delivery failed",
				logger.UserID(userID.String()), logger.LimitKey(string(key)), logger.Error(err))
			a.forget(userID, []plans.LimitKey{key})
		}
	}
}

func (a *Alerter) shouldAlert(userID uuid.UUID, key plans.LimitKey, snap usage.Snapshot) bool {
	if snap.Unavailable || snap.Unlimited() || snap.Limit <= 0 {
		return false
	}
	if float64(snap.Used) < a.threshold*float64(snap.Limit) {
		return false
	}

	k := a.dedupKey(userID, key)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, done := a.sent[k]; done {
		return false
	}
	a.sent[k] = struct{}{}
	return true
}

// forget releases dedup slots so a failed delivery can be retried on the
// next observation.
func (a *Alerter) forget(userID uuid.UUID, keys []plans.LimitKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range keys {
		delete(a.sent, a.dedupKey(userID, key))
	}
}

func (a *Alerter) dedupKey(userID uuid.UUID, key plans.LimitKey) string {
	return userID.String() + "|" + string(key) + "|" + a.now().In(usage.DefaultLocation).Format("2006-01")
}

func quotaAlertMessage(addr string, key plans.LimitKey, snap usage.Snapshot) Message {
	label := key.Label()
	var body strings.Builder
	body.WriteString("<p>Hola,</p>")
	fmt.Fprintf(&body, "<p>Has usado %d de %d %s de tu plan.</p>", snap.Used, snap.Limit, label)
	if snap.Remaining > 0 {
		fmt.Fprintf(&body, "<p>Te quedan %d antes de alcanzar el límite.</p>", snap.Remaining)
	} else {
		body.WriteString("<p>Alcanzaste el límite de tu plan.</p>")
	}
	body.WriteString(`<p>Puedes ampliar tu cuota en <a href="https://miplata.cl/planes">miplata.cl/planes</a>.</p>`)

	return Message{
		To:       addr,
		Subject:  fmt.Sprintf("Estás por alcanzar tu límite de %s", label),
		BodyHTML: body.String(),
		Tag:      "quota-alert",
	}
}
