package notify

import (
	"context"
	"fmt"

	"opsportal/internal/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioTransport sends messages through the Twilio REST API.
type TwilioTransport struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioTransport(cfg config.TwilioConfig) *TwilioTransport {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioTransport{client: client, from: cfg.PhoneNumber}
}

// Send does not observe ctx; the dispatcher bounds it.
func (t *TwilioTransport) Send(_ context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to create twilio message: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
