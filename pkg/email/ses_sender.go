package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"order-tracking/internal/logging"
	"order-tracking/internal/models"
)

// sesAPI is the part of the SES v2 client the sender calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESV2Sender sends shipment status e-mails through AWS SES v2.
type SESV2Sender struct {
	client    sesAPI
	fromEmail string
	templates *TemplateManager
}

// NewSESV2Sender creates a new sender for Amazon SES.
// Credentials come from the default AWS chain.
func NewSESV2Sender(ctx context.Context, region, fromEmail string) (*SESV2Sender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("email.NewSESV2Sender: %w", err)
	}
	templates, err := NewTemplateManager()
	if err != nil {
		return nil, err
	}
	return &SESV2Sender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		templates: templates,
	}, nil
}

// NotifyStatusChange mails the customer that their shipment moved to a new status.
func (s *SESV2Sender) NotifyStatusChange(ctx context.Context, to string, shipment *models.Shipment, message string) error {
	data := StatusData{
		Name:    shipment.Customer.Name,
		OrderID: shipment.OrderID,
		Status:  StatusLabel(shipment.Status),
		Message: message,
	}
	if shipment.Agent != nil {
		data.ShipperName = shipment.Agent.Name
		data.ShipperPhone = shipment.Agent.Phone
	}

	html, err := s.templates.StatusChangedHTML(data)
	if err != nil {
		return fmt.Errorf("email.NotifyStatusChange: %w", err)
	}
	subject := fmt.Sprintf("Đơn hàng %s: %s", shipment.OrderID, data.Status)
	return s.SendEmail(ctx, to, subject, StatusChangedText(data), html)
}

// SendEmail sends one message using the AWS SES v2 API.
func (s *SESV2Sender) SendEmail(ctx context.Context, to, subject, plainTextContent, htmlContent string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(plainTextContent),
						Charset: aws.String("UTF-8"),
					},
					Html: &types.Content{
						Data:    aws.String(htmlContent),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email.SendEmail: %w", err)
	}
	logging.Ctx(ctx).Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
