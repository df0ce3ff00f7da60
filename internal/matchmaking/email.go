package matchmaking

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// EmailSender is the subset of the SES client used for notifications.
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier mails every new request to the matchmaking team.
type EmailNotifier struct {
	client EmailSender
	from   string
	to     []string
}

// NewSESNotifier loads the default AWS credential chain for region.
func NewSESNotifier(ctx context.Context, region, from string, to []string) (*EmailNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewEmailNotifier(ses.NewFromConfig(cfg), from, to), nil
}

func NewEmailNotifier(client EmailSender, from string, to []string) *EmailNotifier {
	return &EmailNotifier{client: client, from: from, to: to}
}

func (n *EmailNotifier) NotifyMatchmaking(ctx context.Context, req models.MatchmakingRequest) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket: %s\n", req.TicketID)
	fmt.Fprintf(&b, "Blueprint: %s\n", req.BlueprintID)
	fmt.Fprintf(&b, "Services: %s\n", strings.Join(req.ServiceLines, ", "))
	fmt.Fprintf(&b, "Budget: %s\n", req.ConfirmedBudget)
	fmt.Fprintf(&b, "Timeline: %s\n", req.ConfirmedTimeline)
	writeContact(&b, req.Contact)

	return n.send(ctx, fmt.Sprintf("Matchmaking request %s", req.TicketID), b.String())
}

func (n *EmailNotifier) NotifyConcierge(ctx context.Context, bk models.ConciergeBooking) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", bk.BookingID)
	if bk.BlueprintID != "" {
		fmt.Fprintf(&b, "Blueprint: %s\n", bk.BlueprintID)
	}
	if bk.PreferredAt != "" {
		fmt.Fprintf(&b, "Preferred time: %s\n", bk.PreferredAt)
	}
	if bk.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", bk.Notes)
	}
	fmt.Fprintf(&b, "Calendar: %s\n", bk.CalendarLink)
	writeContact(&b, bk.Contact)

	return n.send(ctx, fmt.Sprintf("Concierge session %s", bk.BookingID), b.String())
}

func (n *EmailNotifier) send(ctx context.Context, subject, body string) error {
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: n.to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}

func writeContact(b *strings.Builder, c models.ContactInfo) {
	fmt.Fprintf(b, "\nContact: %s <%s>\n", c.Name, c.Email)
	if c.Phone != "" {
		fmt.Fprintf(b, "Phone: %s\n", c.Phone)
	}
	if c.Company != "" {
		fmt.Fprintf(b, "Company: %s\n", c.Company)
	}
}
