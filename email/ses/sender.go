// Package ses delivers password reset codes through Amazon SES v2.
package ses

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	ob "github.com/panyam/oneblog"
)

// sesAPI is the subset of the SES client the sender uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender implements oneblog.SendEmail. A Sender without a from address is
// disabled and drops every message.
type Sender struct {
	client    sesAPI
	fromEmail string
	fromName  string
	expiry    time.Duration
	enabled   bool
}

// NewSender loads the default AWS configuration for region. expiry is the
// code lifetime quoted in the message body.
func NewSender(ctx context.Context, region, fromEmail, fromName string, expiry time.Duration) (*Sender, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: EMAIL_FROM not configured")
		return &Sender{enabled: false}, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, region)
	return newSender(sesv2.NewFromConfig(cfg), fromEmail, fromName, expiry), nil
}

func newSender(client sesAPI, fromEmail, fromName string, expiry time.Duration) *Sender {
	return &Sender{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		expiry:    expiry,
		enabled:   true,
	}
}

func (s *Sender) IsEnabled() bool {
	return s.enabled
}

func (s *Sender) from() string {
	if s.fromName == "" {
		return s.fromEmail
	}
	return fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
}

func (s *Sender) SendResetCode(ctx context.Context, to string, code string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): password reset to %s", to)
		return nil
	}

	msg := ob.RenderResetCodeEmail(code, s.expiry)
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from()),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTML),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(msg.Text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
