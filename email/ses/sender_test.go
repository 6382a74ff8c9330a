package ses

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sesv2.SendEmailOutput{}, nil
}

func TestSender_SendResetCode(t *testing.T) {
	fake := &fakeSES{}
	sender := newSender(fake, "noreply@example.com", "Blog", 10*time.Minute)

	if err := sender.SendResetCode(context.Background(), "a@x.com", "123456"); err != nil {
		t.Fatalf("SendResetCode() error = %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.FromEmailAddress != "Blog <noreply@example.com>" {
		t.Errorf("From = %q", *in.FromEmailAddress)
	}
	if in.Destination.ToAddresses[0] != "a@x.com" {
		t.Errorf("To = %v", in.Destination.ToAddresses)
	}
	msg := in.Content.Simple
	if *msg.Subject.Data != "Password Reset OTP - Blog Application" {
		t.Errorf("Subject = %q", *msg.Subject.Data)
	}
	for _, body := range []string{*msg.Body.Html.Data, *msg.Body.Text.Data} {
		if !strings.Contains(body, "123456") || !strings.Contains(body, "10 minutes") {
			t.Errorf("body missing code or expiry: %q", body)
		}
	}
}

func TestSender_Failure(t *testing.T) {
	sender := newSender(&fakeSES{err: errors.New("throttled")}, "noreply@example.com", "", time.Minute)
	if err := sender.SendResetCode(context.Background(), "a@x.com", "123456"); err == nil {
		t.Error("expected error from SES failure")
	}
}

func TestSender_Disabled(t *testing.T) {
	sender, err := NewSender(context.Background(), "us-east-1", "", "", time.Minute)
	if err != nil {
		t.Fatalf("NewSender() error = %v", err)
	}
	if sender.IsEnabled() {
		t.Error("expected disabled sender without from address")
	}
	if err := sender.SendResetCode(context.Background(), "a@x.com", "123456"); err != nil {
		t.Errorf("disabled sender returned %v", err)
	}
}
