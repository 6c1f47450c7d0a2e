package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	apperrors "github.com/vedhub/mailsync/internal/errors"
	"github.com/vedhub/mailsync/internal/mime"
)

// me addresses the mailbox owning the access token
const me = "me"

// TokenSourceProvider hands out a per-user token source
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, userID string) oauth2.TokenSource
}

// Options configures the API client
type Options struct {
	// RequestsPerSecond bounds outbound calls across all users
	RequestsPerSecond float64
	Burst             int

	// Endpoint overrides the API base URL
	Endpoint string

	// HTTPClient is wrapped by the OAuth2 transport; nil uses http.DefaultClient
	HTTPClient *http.Client

	// BreakerTimeout is how long the breaker stays open before probing again
	BreakerTimeout time.Duration
}

// APIClient implements Client on the Gmail REST API
type APIClient struct {
	tokens  TokenSourceProvider
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewAPIClient creates a Gmail client that authenticates through tokens
func NewAPIClient(tokens TokenSourceProvider, opts Options, logger *slog.Logger) *APIClient {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = int(opts.RequestsPerSecond) + 1
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &APIClient{
		tokens:  tokens,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return c
}

// ListMessageIDs lists one page of message ids, newest first
func (c *APIClient) ListMessageIDs(ctx context.Context, userID string, maxResults int64, query string) ([]MessageRef, error) {
	var refs []MessageRef
	err := c.call(ctx, userID, "list messages", func(svc *gmailapi.Service) error {
		call := svc.Users.Messages.List(me).MaxResults(maxResults)
		if query != "" {
			call = call.Q(query)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return err
		}
		refs = make([]MessageRef, 0, len(res.Messages))
		for _, m := range res.Messages {
			refs = append(refs, MessageRef{ID: m.Id, ThreadID: m.ThreadId})
		}
		return nil
	})
	return refs, err
}

// GetMessage fetches a message with its full payload tree
func (c *APIClient) GetMessage(ctx context.Context, userID, externalID string) (*Message, error) {
	var msg *Message
	err := c.call(ctx, userID, "get message", func(svc *gmailapi.Service) error {
		res, err := svc.Users.Messages.Get(me, externalID).Format("full").Context(ctx).Do()
		if err != nil {
			return err
		}
		msg = toMessage(res)
		return nil
	})
	return msg, err
}

// ModifyLabels adds and removes labels on one message
func (c *APIClient) ModifyLabels(ctx context.Context, userID, externalID string, delta LabelDelta) error {
	return c.call(ctx, userID, "modify labels", func(svc *gmailapi.Service) error {
		req := &gmailapi.ModifyMessageRequest{
			AddLabelIds:    delta.Add,
			RemoveLabelIds: delta.Remove,
		}
		_, err := svc.Users.Messages.Modify(me, externalID, req).Context(ctx).Do()
		return err
	})
}

// Trash moves a message to the provider's trash
func (c *APIClient) Trash(ctx context.Context, userID, externalID string) error {
	return c.call(ctx, userID, "trash message", func(svc *gmailapi.Service) error {
		_, err := svc.Users.Messages.Trash(me, externalID).Context(ctx).Do()
		return err
	})
}

// Delete permanently deletes a message
func (c *APIClient) Delete(ctx context.Context, userID, externalID string) error {
	return c.call(ctx, userID, "delete message", func(svc *gmailapi.Service) error {
		return svc.Users.Messages.Delete(me, externalID).Context(ctx).Do()
	})
}

// Send submits msg for delivery
func (c *APIClient) Send(ctx context.Context, userID string, msg Outgoing) (*SendResult, error) {
	var result *SendResult
	err := c.call(ctx, userID, "send message", func(svc *gmailapi.Service) error {
		raw, err := c.encode(ctx, svc, msg)
		if err != nil {
			return err
		}
		res, err := svc.Users.Messages.Send(me, &gmailapi.Message{Raw: raw}).Context(ctx).Do()
		if err != nil {
			return err
		}
		result = &SendResult{ID: res.Id, ThreadID: res.ThreadId, LabelIDs: res.LabelIds}
		return nil
	})
	return result, err
}

// CreateDraft saves msg as a draft
func (c *APIClient) CreateDraft(ctx context.Context, userID string, msg Outgoing) (*DraftResult, error) {
	var result *DraftResult
	err := c.call(ctx, userID, "create draft", func(svc *gmailapi.Service) error {
		raw, err := c.encode(ctx, svc, msg)
		if err != nil {
			return err
		}
		draft := &gmailapi.Draft{Message: &gmailapi.Message{Raw: raw}}
		res, err := svc.Users.Drafts.Create(me, draft).Context(ctx).Do()
		if err != nil {
			return err
		}
		result = &DraftResult{DraftID: res.Id}
		if res.Message != nil {
			result.MessageID = res.Message.Id
			result.ThreadID = res.Message.ThreadId
			result.LabelIDs = res.Message.LabelIds
		}
		return nil
	})
	return result, err
}

// encode renders msg as base64url RFC 822, filling the sender from the profile when unset
func (c *APIClient) encode(ctx context.Context, svc *gmailapi.Service, msg Outgoing) (string, error) {
	from := msg.From
	if from == "" {
		profile, err := svc.Users.GetProfile(me).Context(ctx).Do()
		if err != nil {
			return "", err
		}
		from = profile.EmailAddress
	}

	raw, err := mime.BuildRFC822(mime.Envelope{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", apperrors.NewAppError(apperrors.ErrInvalidInput, err.Error(), apperrors.CodeInvalidInput)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// call rate-limits and breaker-guards fn, then maps its error into the app taxonomy
func (c *APIClient) call(ctx context.Context, userID, op string, fn func(*gmailapi.Service) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate wait: %w", op, err)
	}

	svc, err := c.service(ctx, userID)
	if err != nil {
		return apperrors.NewUpstreamError(op, 0, err.Error(), err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, fn(svc)
	})
	return c.mapError(op, err)
}

func (c *APIClient) service(ctx context.Context, userID string) (*gmailapi.Service, error) {
	ts := c.tokens.TokenSource(ctx, userID)
	opts := []option.ClientOption{}
	if c.opts.HTTPClient != nil {
		// option.WithHTTPClient bypasses WithTokenSource, so wrap the transport ourselves
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: c.opts.HTTPClient.Transport},
			Timeout:   c.opts.HTTPClient.Timeout,
		}))
	} else {
		opts = append(opts, option.WithTokenSource(ts))
	}
	if c.opts.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.opts.Endpoint))
	}
	return gmailapi.NewService(ctx, opts...)
}

func (c *APIClient) mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	switch {
	case apperrors.IsAuthFailure(err), apperrors.IsInvalidInput(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.As(err, &apiErr):
		detail := apiErr.Message
		if detail == "" {
			detail = http.StatusText(apiErr.Code)
		}
		return apperrors.NewUpstreamError(op, apiErr.Code, detail, err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.NewUpstreamError(op, http.StatusServiceUnavailable, err.Error(), err)
	default:
		return apperrors.NewUpstreamError(op, 0, err.Error(), err)
	}
}

// isBreakerSuccess keeps caller-side failures from tripping the breaker.
// Only 5xx, 429 and transport errors count against the provider.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if apperrors.IsAuthFailure(err) || apperrors.IsInvalidInput(err) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}

func toMessage(m *gmailapi.Message) *Message {
	msg := &Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		LabelIDs: m.LabelIds,
		Snippet:  m.Snippet,
		Payload:  toPart(m.Payload),
	}
	if m.InternalDate > 0 {
		msg.InternalDate = time.UnixMilli(m.InternalDate).UTC()
	}
	return msg
}

func toPart(p *gmailapi.MessagePart) *mime.Part {
	if p == nil {
		return nil
	}
	part := &mime.Part{MimeType: p.MimeType}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	for _, h := range p.Headers {
		if h != nil {
			part.Headers = append(part.Headers, mime.Header{Name: h.Name, Value: h.Value})
		}
	}
	for _, child := range p.Parts {
		if converted := toPart(child); converted != nil {
			part.Parts = append(part.Parts, converted)
		}
	}
	return part
}

var _ Client = (*APIClient)(nil)
