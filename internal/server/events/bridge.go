package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/revocation"
)

// UserCreator stores users announced by the identity provider.
type UserCreator interface {
	CreateUser(ctx context.Context, u *models.User) error
}

// Bridge turns inbound events into local state changes.
type Bridge struct {
	bus         Bus
	users       UserCreator
	revocations revocation.Store
	tokenTTL    time.Duration
	logger      logging.Logger
	now         func() time.Time
}

// NewBridge builds a bridge. tokenTTL is the access-token lifetime; sign-out
// marks live that long so no earlier token outlives its mark.
func NewBridge(bus Bus, users UserCreator, revocations revocation.Store, tokenTTL time.Duration, l logging.Logger) *Bridge {
	return &Bridge{
		bus:         bus,
		users:       users,
		revocations: revocations,
		tokenTTL:    tokenTTL,
		logger:      l.With("module", "event_bridge"),
		now:         time.Now,
	}
}

// Run consumes both inbound channels until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	var wg sync.WaitGroup

	subscribe := func(channel string, h Handler) {
		defer wg.Done()
		if err := b.bus.Subscribe(ctx, channel, h); err != nil {
			b.logger.Error(ctx, "subscription ended", "channel", channel, "error", err)
		}
	}

	wg.Add(2)
	go subscribe(ChannelUserCreated, b.HandleUserCreated)
	go subscribe(ChannelUserSignedOut, b.HandleUserSignedOut)
	wg.Wait()
}

// HandleUserCreated stores the announced user. Malformed events are dropped.
func (b *Bridge) HandleUserCreated(ctx context.Context, payload []byte) error {
	var ev UserCreated
	if err := json.Unmarshal(payload, &ev); err != nil || ev.UserID == "" {
		b.logger.Warn(ctx, "dropping malformed user created event", "error", err)
		return nil
	}

	b.logger.Info(ctx, "received user created event", "event_id", ev.ID, "user_id", ev.UserID)

	registeredAt := ev.Time
	if registeredAt.IsZero() {
		registeredAt = b.now()
	}

	u := &models.User{
		ID:           ev.UserID,
		Name:         ev.Name,
		Surname:      ev.Surname,
		Nickname:     ev.Nickname,
		Phone:        ev.Phone,
		Email:        ev.Email,
		RegisteredAt: registeredAt.UTC(),
	}

	if err := b.users.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create user %s: %w", ev.UserID, err)
	}
	return nil
}

// HandleUserSignedOut records a sign-out mark. Malformed events are dropped.
func (b *Bridge) HandleUserSignedOut(ctx context.Context, payload []byte) error {
	var ev UserSignedOut
	if err := json.Unmarshal(payload, &ev); err != nil || ev.UserID == "" || ev.ID == "" {
		b.logger.Warn(ctx, "dropping malformed user sign out event", "error", err)
		return nil
	}

	b.logger.Info(ctx, "received user sign out event", "event_id", ev.ID, "user_id", ev.UserID)

	// Anchored at receipt: a delayed event still outlives every earlier token.
	mark := revocation.NewMark(ev.ID, ev.UserID, b.now().UTC(), b.tokenTTL)
	if err := b.revocations.Record(ctx, mark); err != nil {
		return fmt.Errorf("record sign out of %s: %w", ev.UserID, err)
	}
	return nil
}
