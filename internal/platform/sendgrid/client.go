// Package sendgrid sends transactional mail through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yungbote/coursecraft-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"`
	DefaultFromEmail string        `yaml:"from_email"`
	DefaultFromName  string        `yaml:"from_name"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
}

func (cfg Config) withDefaults() Config {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}
	return cfg
}

type EmailAddress struct {
	Email string
	Name  string
}

type SendEmailRequest struct {
	From       EmailAddress
	To         []EmailAddress
	Subject    string
	Text       string
	HTML       string
	Categories []string
	CustomArgs map[string]string
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
}

type client struct {
	log *logger.Logger
	cfg Config

	// wait pauses between attempts; tests replace it.
	wait func(ctx context.Context, d time.Duration) error
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, errors.New("sendgrid: logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid: api key required")
	}
	return &client{log: log.With("client", "sendgrid"), cfg: cfg.withDefaults(), wait: sleepCtx}, nil
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	msg, err := c.message(req)
	if err != nil {
		return nil, err
	}
	call := sg.GetRequest(c.cfg.APIKey, "/v3/mail/send", c.cfg.BaseURL)
	call.Method = rest.Post
	call.Body = mail.GetRequestBody(msg)

	resp, err := c.withRetry(ctxutil.Default(ctx), call)
	if err != nil {
		return nil, err
	}
	return &SendEmailResult{StatusCode: resp.StatusCode, MessageID: header(resp.Headers, "X-Message-Id")}, nil
}

func (c *client) message(req SendEmailRequest) (*mail.SGMailV3, error) {
	from := req.From
	if strings.TrimSpace(from.Email) == "" {
		from = EmailAddress{Email: c.cfg.DefaultFromEmail, Name: c.cfg.DefaultFromName}
	}
	subject, text, html := strings.TrimSpace(req.Subject), strings.TrimSpace(req.Text), strings.TrimSpace(req.HTML)

	p := mail.NewPersonalization()
	for _, to := range req.To {
		if addr := strings.TrimSpace(to.Email); addr != "" {
			p.AddTos(mail.NewEmail(strings.TrimSpace(to.Name), addr))
		}
	}
	for k, v := range req.CustomArgs {
		p.SetCustomArg(k, v)
	}

	switch {
	case strings.TrimSpace(from.Email) == "":
		return nil, errors.New("sendgrid: From.Email required")
	case len(p.To) == 0:
		return nil, errors.New("sendgrid: To required")
	case subject == "":
		return nil, errors.New("sendgrid: Subject required")
	case text == "" && html == "":
		return nil, errors.New("sendgrid: Text or HTML content required")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(strings.TrimSpace(from.Name), strings.TrimSpace(from.Email)))
	m.Subject = subject
	m.AddPersonalizations(p)
	if text != "" {
		m.AddContent(mail.NewContent("text/plain", text))
	}
	if html != "" {
		m.AddContent(mail.NewContent("text/html", html))
	}
	if len(req.Categories) > 0 {
		m.AddCategories(req.Categories...)
	}
	return m, nil
}

const maxBackoff = 10 * time.Second

// withRetry repeats call on 429 and 5xx answers, honoring Retry-After and
// adding up to 25% jitter.
func (c *client) withRetry(ctx context.Context, call rest.Request) (*rest.Response, error) {
	backoff := time.Second
	for attempt := 0; ; attempt++ {
		resp, err := c.once(ctx, call)
		var httpErr *HTTPError
		if err == nil || !errors.As(err, &httpErr) || !httpErr.Retryable() || attempt >= c.cfg.MaxRetries {
			return resp, err
		}
		pause := min(backoff, maxBackoff)
		if httpErr.retryAfter > 0 {
			pause = min(httpErr.retryAfter, maxBackoff)
		}
		pause += rand.N(pause/4 + 1)
		c.log.Warn("sendgrid retrying", "attempt", attempt+1, "pause", pause.String(), "error", err)
		if err := c.wait(ctx, pause); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func (c *client) once(ctx context.Context, call rest.Request) (*rest.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := sg.MakeRequestWithContext(ctx, call)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newHTTPError(resp)
	}
	return resp, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
