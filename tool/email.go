package tool

import (
	"context"
	"fmt"

	"github.com/VRUSHIL1/shop-chatbot-v2/email"
)

var emailSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"to_email": map[string]any{
			"type":        "string",
			"description": "The recipient's email address.",
		},
		"subject": map[string]any{
			"type":        "string",
			"description": "The subject line of the email.",
		},
		"body": map[string]any{
			"type":        "string",
			"description": "The plain text body of the email.",
		},
		"mode": map[string]any{
			"type":        "string",
			"enum":        []string{"send", "save"},
			"description": "Choose 'send' to deliver the email, or 'save' to store it without sending.",
		},
	},
	"required": []string{"to_email", "subject", "body"},
}

// NewEmailTool creates the send-email tool. Mode "save" stores the message
// without delivering it.
func NewEmailTool(mailer email.Mailer) Tool {
	return NewFunctionTool(
		"send_email_tool",
		"Send an email using SMTP or save it without sending.",
		emailSchema,
		func(ctx context.Context, args map[string]any) (any, error) {
			to, _ := args["to_email"].(string)
			subject, _ := args["subject"].(string)
			body, _ := args["body"].(string)
			mode, _ := args["mode"].(string)
			if mode == "" {
				mode = "send"
			}

			if mode == "save" {
				return map[string]any{
					"status":  "success",
					"message": fmt.Sprintf("Email to %s saved without sending", to),
				}, nil
			}

			if err := mailer.Send(ctx, email.Message{To: to, Subject: subject, Body: body}); err != nil {
				return map[string]any{
					"status":  "error",
					"message": err.Error(),
				}, nil
			}
			return map[string]any{
				"status":  "success",
				"message": fmt.Sprintf("Email sent to %s", to),
			}, nil
		},
	)
}
