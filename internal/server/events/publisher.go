package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/segmentio/ksuid"
)

// Publisher emits outbound events.
type Publisher struct {
	bus Bus
}

func NewPublisher(bus Bus) *Publisher {
	return &Publisher{bus: bus}
}

// PublishUserChanged announces the current profile of u.
func (p *Publisher) PublishUserChanged(ctx context.Context, u *models.User) error {
	ev := UserChanged{
		ID:           ksuid.New().String(),
		UserID:       u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		Nickname:     u.Nickname,
		Phone:        u.Phone,
		Email:        u.Email,
		Address:      u.Address,
		RegisteredAt: u.RegisteredAt,
		About:        u.About,
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode user changed event: %w", err)
	}

	return p.bus.Publish(ctx, ChannelUserChanged, payload)
}
