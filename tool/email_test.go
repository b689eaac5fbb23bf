package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRUSHIL1/shop-chatbot-v2/email"
)

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestEmailToolSends(t *testing.T) {
	mailer := &fakeMailer{}
	emailTool := NewEmailTool(mailer)

	out, err := emailTool.Call(context.Background(), map[string]any{
		"to_email": "customer@example.com",
		"subject":  "Your order",
		"body":     "It shipped.",
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "Email sent to customer@example.com", result["message"])

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Your order", mailer.sent[0].Subject)
}

func TestEmailToolSaveModeSkipsDelivery(t *testing.T) {
	mailer := &fakeMailer{}
	emailTool := NewEmailTool(mailer)

	out, err := emailTool.Call(context.Background(), map[string]any{
		"to_email": "customer@example.com",
		"subject":  "Draft",
		"body":     "later",
		"mode":     "save",
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, "success", result["status"])
	assert.Empty(t, mailer.sent)
}

func TestEmailToolDeliveryFailureIsReported(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp auth failed")}
	emailTool := NewEmailTool(mailer)

	out, err := emailTool.Call(context.Background(), map[string]any{
		"to_email": "customer@example.com",
		"subject":  "x",
		"body":     "y",
	})
	require.NoError(t, err)

	result := out.(map[string]any)
	assert.Equal(t, "error", result["status"])
	assert.Contains(t, result["message"], "smtp auth failed")
}
