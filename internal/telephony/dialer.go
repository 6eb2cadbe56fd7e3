// Package telephony originates outbound calls through Twilio.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/comigor/darshini/internal/config"
	"github.com/comigor/darshini/internal/logger"
	"github.com/comigor/darshini/internal/voice"
)

// ErrOutboundCall wraps every failure to originate a call.
var ErrOutboundCall = errors.New("outbound call failed")

// Dialer places a call to the configured destination and returns its call SID.
type Dialer interface {
	Dial(ctx context.Context) (string, error)
}

// callCreator is the subset of the Twilio API service used here; it is easy to mock in tests.
type callCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

// TwilioDialer calls the fixed destination and points the call at the incoming webhook.
type TwilioDialer struct {
	api        callCreator
	from       string
	to         string
	webhookURL string
}

// NewTwilioDialer creates a dialer from the Twilio account settings and the public base URL.
func NewTwilioDialer(cfg config.TwilioConfig, baseURL string) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioDialer(client.Api, cfg, baseURL)
}

func newTwilioDialer(api callCreator, cfg config.TwilioConfig, baseURL string) *TwilioDialer {
	return &TwilioDialer{
		api:        api,
		from:       cfg.FromNumber,
		to:         cfg.ToNumber,
		webhookURL: strings.TrimRight(baseURL, "/") + voice.IncomingPath,
	}
}

// Dial originates the call.
func (d *TwilioDialer) Dial(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutboundCall, err)
	}

	logger.FromContext(ctx).Info("initiating call", "from", d.from, "to", d.to, "url", d.webhookURL)

	params := &openapi.CreateCallParams{}
	params.SetTo(d.to)
	params.SetFrom(d.from)
	params.SetUrl(d.webhookURL)
	params.SetMethod("POST")

	call, err := d.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOutboundCall, err)
	}
	if call == nil || call.Sid == nil || *call.Sid == "" {
		return "", fmt.Errorf("%w: response carried no call sid", ErrOutboundCall)
	}
	return *call.Sid, nil
}
