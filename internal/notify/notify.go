// Package notify sends the closing summary of an election to the
// configured admin phone number. Delivery is best effort and never blocks
// or fails the close operation itself.
package notify

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/openballot/backend/internal/config"
	"github.com/openballot/backend/internal/tally"
)

// Notifier announces election lifecycle events. The Twilio implementation
// is used when credentials are configured; NopNotifier otherwise.
type Notifier interface {
	ElectionClosed(title string, result tally.Result)
}

type NopNotifier struct{}

func (NopNotifier) ElectionClosed(string, tally.Result) {}

type SMSNotifier struct {
	client *twilio.RestClient
	from   string
	to     string
}

// New picks the SMS notifier when the config carries complete Twilio
// credentials, and the no-op otherwise.
func New(cfg *config.Config) Notifier {
	if !cfg.NotificationsEnabled() {
		return NopNotifier{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &SMSNotifier{client: client, from: cfg.TwilioFrom, to: cfg.AdminPhone}
}

func (n *SMSNotifier) ElectionClosed(title string, result tally.Result) {
	body := fmt.Sprintf("Election %q closed with %d votes.", title, result.TotalVotes)
	if result.Leader != nil && result.TotalVotes > 0 {
		body = fmt.Sprintf("Election %q closed with %d votes. Leading: %s (%.1f%%).",
			title, result.TotalVotes, result.Leader.Name, result.Leader.Percentage)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.to)
	params.SetFrom(n.from)
	params.SetBody(body)

	go func() {
		if _, err := n.client.Api.CreateMessage(params); err != nil {
			log.Errorf("notify: close SMS failed: %v", err)
		}
	}()
}
