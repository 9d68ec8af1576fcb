// Package dispatch sends transactional email through the mailer pool.
package dispatch

import (
	"context"
	"fmt"

	"github.com/hireloop/keypool/internal/infra/mailer"
	"github.com/hireloop/keypool/internal/keypool"
)

// Dispatcher wraps the mailer pool. Unlike resume analysis there is no
// meaningful fallback for email: failures surface to the caller, which
// decides whether to queue, drop, or alert.
type Dispatcher struct {
	pool *keypool.Pool[*mailer.Client]
	from string
}

// New returns a dispatcher sending from the given address.
func New(pool *keypool.Pool[*mailer.Client], from string) *Dispatcher {
	return &Dispatcher{pool: pool, from: from}
}

// Send delivers one email and returns the provider message id.
func (d *Dispatcher) Send(ctx context.Context, to, subject, html string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("dispatch: missing recipient")
	}

	result, err := keypool.Execute(ctx, d.pool, func(ctx context.Context, client *mailer.Client) (*mailer.SendResult, error) {
		return client.Send(ctx, mailer.Email{
			From:    d.from,
			To:      []string{to},
			Subject: subject,
			HTML:    html,
		})
	})
	if err != nil {
		return "", err
	}
	return result.ID, nil
}
