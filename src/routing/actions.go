package routing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"tradesync/src/model"
	"tradesync/src/repository"
)

const (
	outboundTimeout      = 10 * time.Second
	outboundRetryCount   = 2
	outboundRetryDelay   = 500 * time.Millisecond
	outboundRetryMaxWait = 4 * time.Second
)

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()
	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 || code == 408 {
		return true
	}
	return false
}

// ActionExecutor runs one rule action against a signal. Each action kind is
// independent; a failure is returned to the caller, never raised past it.
type ActionExecutor struct {
	notifications *repository.NotificationRepository
	journal       *repository.JournalRepository
	http          *resty.Client
}

func NewActionExecutor(
	notifications *repository.NotificationRepository,
	journal *repository.JournalRepository,
) *ActionExecutor {

	httpClient := resty.New().
		SetTimeout(outboundTimeout).
		SetRetryCount(outboundRetryCount).
		SetRetryWaitTime(outboundRetryDelay).
		SetRetryMaxWaitTime(outboundRetryMaxWait).
		AddRetryCondition(isRetryableResp)

	return &ActionExecutor{
		notifications: notifications,
		journal:       journal,
		http:          httpClient,
	}
}

// WithHTTPClient overrides the outbound client, mainly for tests.
func (e *ActionExecutor) WithHTTPClient(client *resty.Client) *ActionExecutor {
	return &ActionExecutor{
		notifications: e.notifications,
		journal:       e.journal,
		http:          client,
	}
}

// Execute runs a single action and returns a short result description.
func (e *ActionExecutor) Execute(
	ctx context.Context,
	userID uint,
	action model.RuleAction,
	signal *model.Signal,
) (string, error) {

	switch action.Type {
	case model.RuleActionSendNotification:
		return e.sendNotification(ctx, userID, action, signal)
	case model.RuleActionCreateJournalEntry:
		return e.createJournalEntry(ctx, userID, action, signal)
	case model.RuleActionWebhook, model.RuleActionAPICall:
		return e.callWebhook(ctx, action, signal)
	default:
		return "", fmt.Errorf("Unknown action type: %s", action.Type)
	}
}

func (e *ActionExecutor) sendNotification(
	ctx context.Context,
	userID uint,
	action model.RuleAction,
	signal *model.Signal,
) (string, error) {

	title := action.Title
	if title == "" {
		title = "Signal: {{action}} {{symbol}}"
	}
	message := action.Message
	if message == "" {
		message = "{{provider}} signal {{action}} {{symbol}} (confidence {{confidence}})"
	}

	notification := &model.Notification{
		UserID:  userID,
		Title:   RenderTemplate(title, signal),
		Message: RenderTemplate(message, signal),
		Kind:    "signal",
	}
	if err := e.notifications.Create(ctx, notification); err != nil {
		return "", err
	}
	return fmt.Sprintf("notification %d created", notification.ID), nil
}

func (e *ActionExecutor) createJournalEntry(
	ctx context.Context,
	userID uint,
	action model.RuleAction,
	signal *model.Signal,
) (string, error) {

	title := action.Title
	if title == "" {
		title = "{{action}} {{symbol}}"
	}
	content := action.Message
	if content == "" {
		content = "Routed signal: {{action}} {{symbol}} @ {{price}} from {{provider}}"
	}

	entry := &model.JournalEntry{
		UserID:  userID,
		Title:   RenderTemplate(title, signal),
		Content: RenderTemplate(content, signal),
		Symbol:  signal.Symbol,
	}
	if err := e.journal.Create(ctx, entry); err != nil {
		return "", err
	}
	return fmt.Sprintf("journal entry %d created", entry.ID), nil
}

func (e *ActionExecutor) callWebhook(
	ctx context.Context,
	action model.RuleAction,
	signal *model.Signal,
) (string, error) {

	if action.URL == "" {
		return "", fmt.Errorf("action has no url")
	}

	req := e.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(signal)
	if action.BearerToken != "" {
		req.SetAuthToken(action.BearerToken)
	}

	resp, err := req.Post(action.URL)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return fmt.Sprintf("posted, status %d", resp.StatusCode()), nil
}

// RenderTemplate substitutes {{field}} placeholders with signal values.
// Unknown placeholders are left untouched.
func RenderTemplate(template string, signal *model.Signal) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	pairs := []string{
		"{{id}}", strconv.FormatUint(uint64(signal.ID), 10),
		"{{symbol}}", signal.Symbol,
		"{{action}}", signal.Action,
		"{{provider}}", signal.Provider,
		"{{confidence}}", strconv.Itoa(signal.Confidence),
		"{{price}}", floatPlaceholder(signal.Price),
		"{{stop_loss}}", floatPlaceholder(signal.StopLoss),
		"{{take_profits}}", floatsPlaceholder(signal.TakeProfits),
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func floatPlaceholder(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func floatsPlaceholder(fs []float64) string {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		parts = append(parts, strconv.FormatFloat(f, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
