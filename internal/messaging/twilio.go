// Package messaging adapts the Twilio WhatsApp API to the router's
// DeliveryChannel contract. Outbound delivery is decoupled from the inbound
// webhook lifecycle; this package only knows how to push one text to one
// address and report failure.
package messaging

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST client the channel needs;
// tests substitute it.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// apiClient adapts *twilio.RestClient to messageCreator.
type apiClient struct{ c *twilio.RestClient }

func (a apiClient) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	return a.c.Api.CreateMessage(params)
}

// Opts holds configuration for the Twilio WhatsApp channel.
type Opts struct {
	AccountSID string
	AuthToken  string
	From       string // WhatsApp sender in "whatsapp:+1234567890" format
}

// Option configures the Twilio channel.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option { return func(o *Opts) { o.AccountSID = sid } }

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option { return func(o *Opts) { o.AuthToken = token } }

// WithFrom sets the WhatsApp sender address.
func WithFrom(from string) Option { return func(o *Opts) { o.From = from } }

// TwilioChannel sends WhatsApp texts through the Twilio REST API.
type TwilioChannel struct {
	client messageCreator
	from   string
}

// NewTwilioChannel builds the channel, falling back to the conventional
// environment variables for anything not passed as an option.
func NewTwilioChannel(opts ...Option) (*TwilioChannel, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.From == "" {
		cfg.From = os.Getenv("TWILIO_FROM_NUMBER")
	}

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioChannel{client: apiClient{client}, from: canonicalAddress(cfg.From)}, nil
}

// Send pushes one text to the destination address. The context deadline is
// advisory only: the Twilio SDK does not thread contexts through, so a
// cancelled context short-circuits before the call rather than aborting it.
func (t *TwilioChannel) Send(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("destination address must not be empty")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(canonicalAddress(to))
	params.SetBody(text)

	msg, err := t.client.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if msg.Sid != nil {
		log.Debug().Str("sid", *msg.Sid).Str("to", to).Msg("twilio message accepted")
	}
	return nil
}

// canonicalAddress ensures the "whatsapp:" channel prefix Twilio expects.
func canonicalAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || strings.HasPrefix(addr, "whatsapp:") {
		return addr
	}
	return "whatsapp:" + addr
}
