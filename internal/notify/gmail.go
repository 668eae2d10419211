package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNoRecipient is returned when the task owner cannot be resolved to an
// email address.
var ErrNoRecipient = errors.New("reminder has no recipient")

// UserLookup resolves the owner of a task. store.UserStore satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// GmailConfig holds the Gmail API credentials and sender address.
type GmailConfig struct {
	Sender       string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailNotifier delivers reminders as email through the Gmail API.
type GmailNotifier struct {
	service  *gmail.Service
	sender   string
	users    UserLookup
	logger   *slog.Logger
	timeFunc func() time.Time
}

// NewGmailNotifier builds a Gmail API client that authenticates with the
// configured OAuth2 refresh token. Extra options are passed to the Gmail
// client after the credentials.
func NewGmailNotifier(
	ctx context.Context,
	cfg GmailConfig,
	users UserLookup,
	logger *slog.Logger,
	opts ...option.ClientOption,
) (*GmailNotifier, error) {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	client := oauthConfig.Client(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: cfg.RefreshToken})

	clientOpts := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return newGmailNotifier(service, cfg.Sender, users, logger, time.Now), nil
}

func newGmailNotifier(
	service *gmail.Service,
	sender string,
	users UserLookup,
	logger *slog.Logger,
	timeFunc func() time.Time,
) *GmailNotifier {
	return &GmailNotifier{
		service:  service,
		sender:   sender,
		users:    users,
		logger:   logger.With(slog.String("component", "gmail_notifier")),
		timeFunc: timeFunc,
	}
}

// DeliverReminder emails the task owner. Sending the same reminder twice
// sends two emails; the scheduler's reminder_sent flag keeps that rare.
func (n *GmailNotifier) DeliverReminder(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, n.logger).With(slog.String("task_id", task.ID.String()))

	user, err := n.users.GetByID(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up task owner: %w", err)
	}
	if user.Email == "" {
		return ErrNoRecipient
	}

	raw, err := buildReminderMessage(n.sender, user.Email, task, n.timeFunc())
	if err != nil {
		return err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := n.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			log.Warn("gmail rejected reminder",
				slog.Int("status", apiErr.Code),
				slog.String("message", apiErr.Message))
		}
		return fmt.Errorf("failed to send reminder email: %w", err)
	}

	log.Debug("reminder email sent", slog.String("message_id", sent.Id))
	return nil
}
