package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
	"github.com/capitalize-ai/workspace-assistant/pkg/metrics"
)

var tracer = otel.Tracer("github.com/capitalize-ai/workspace-assistant/internal/assistant")

// TokenProvider returns a live bearer token for a user's service.
type TokenProvider interface {
	GetValidToken(ctx context.Context, userID string, service model.Service) (*model.AccessToken, error)
}

// MailClient reads and sends Gmail messages.
type MailClient interface {
	ListMessages(ctx context.Context, token *model.AccessToken, query string, limit int) ([]model.EmailSummary, error)
	SendMessage(ctx context.Context, token *model.AccessToken, intent model.SendEmailIntent) (*model.SendResult, error)
}

// CalendarClient reads and creates Calendar events.
type CalendarClient interface {
	ListEvents(ctx context.Context, token *model.AccessToken, q model.EventQuery) ([]model.CalendarEventSummary, error)
	CreateEvent(ctx context.Context, token *model.AccessToken, intent model.CreateEventIntent) (*model.CalendarEventSummary, error)
}

// ActionRecorder receives an audit record for every action result.
type ActionRecorder interface {
	RecordAction(ctx context.Context, event *model.ActionEvent) error
}

// ServiceState is where one service ended up during a turn.
type ServiceState string

const (
	StateNotConnected   ServiceState = "not_connected"
	StateActionExecuted ServiceState = "action_executed"
	StateActionFailed   ServiceState = "action_failed"
	StateActionSkipped  ServiceState = "action_skipped"
	StateReadFetch      ServiceState = "read_fetch"
	StateIdle           ServiceState = "idle"
)

// Turn is one chat request as seen by the dispatcher.
type Turn struct {
	ID         string
	UserID     string
	Transcript model.Transcript
	Connectors model.Connectors
}

// TurnContext is everything the dispatcher produced for one turn.
type TurnContext struct {
	TurnID       string
	SystemPrompt string
	States       map[model.Service]ServiceState
	Actions      []model.ActionResult
	Emails       []model.EmailSummary
	Events       []model.CalendarEventSummary
}

// Dispatcher runs gates, extractors and the duplicate guard for each
// service and folds the outcome into a system prompt.
type Dispatcher struct {
	tokens   TokenProvider
	mail     MailClient
	calendar CalendarClient
	recorder ActionRecorder
	logger   *logger.Logger
	now      func() time.Time
	location *time.Location
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder publishes action results to r.
func WithRecorder(r ActionRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLocation sets the zone used to interpret dates and times.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

// NewDispatcher creates a dispatcher. A nil log falls back to the global logger.
func NewDispatcher(tokens TokenProvider, mail MailClient, calendar CalendarClient, log *logger.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = logger.Global()
	}
	d := &Dispatcher{
		tokens:   tokens,
		mail:     mail,
		calendar: calendar,
		logger:   log,
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// domainOutcome is what one service contributes to the turn.
type domainOutcome struct {
	state  ServiceState
	status string
	notice string
	block  string
	action *model.ActionResult
	emails []model.EmailSummary
	events []model.CalendarEventSummary
}

// HandleTurn processes both services concurrently. Failures never abort the
// turn; they become notices in the prompt.
func (d *Dispatcher) HandleTurn(ctx context.Context, turn Turn) *TurnContext {
	if turn.ID == "" {
		turn.ID = uuid.Must(uuid.NewV7()).String()
	}
	ctx, span := tracer.Start(ctx, "assistant.HandleTurn")
	span.SetAttributes(
		attribute.String("turn.id", turn.ID),
		attribute.Int("turn.messages", len(turn.Transcript)),
	)
	defer span.End()

	now := d.now().In(d.location)

	var gmail, calendar domainOutcome
	var g errgroup.Group
	g.Go(func() error {
		gmail = d.handleGmail(ctx, turn)
		return nil
	})
	g.Go(func() error {
		calendar = d.handleCalendar(ctx, turn, now)
		return nil
	})
	_ = g.Wait()

	tc := &TurnContext{
		TurnID: turn.ID,
		States: map[model.Service]ServiceState{
			model.ServiceGmail:    gmail.state,
			model.ServiceCalendar: calendar.state,
		},
		Emails: gmail.emails,
		Events: calendar.events,
	}

	sections := promptSections{Now: now}
	var actionBlocks []string
	for _, out := range []domainOutcome{gmail, calendar} {
		if out.status != "" {
			sections.Statuses = append(sections.Statuses, out.status)
		}
		if out.notice != "" {
			sections.Notices = append(sections.Notices, out.notice)
		}
		if out.action != nil {
			tc.Actions = append(tc.Actions, *out.action)
			actionBlocks = append(actionBlocks, formatAction(*out.action))
		}
	}
	sections.EmailBlock = gmail.block
	sections.CalendarBlock = calendar.block
	for i, block := range actionBlocks {
		if i > 0 {
			sections.ActionBlock += "\n\n"
		}
		sections.ActionBlock += block
	}
	tc.SystemPrompt = buildSystemPrompt(sections)

	d.logger.Debug("turn dispatched",
		zap.String("turn_id", turn.ID),
		zap.String("gmail_state", string(gmail.state)),
		zap.String("calendar_state", string(calendar.state)),
		zap.Int("actions", len(tc.Actions)),
	)
	return tc
}

// connect resolves the token for a service. A nil token means the service is
// unavailable for this turn.
func (d *Dispatcher) connect(ctx context.Context, turn Turn, svc model.Service) *model.AccessToken {
	if !turn.Connectors.Enabled(svc) || d.tokens == nil {
		return nil
	}
	tok, err := d.tokens.GetValidToken(ctx, turn.UserID, svc)
	if err != nil {
		d.logger.Warn("service token unavailable",
			zap.String("turn_id", turn.ID),
			zap.String("service", string(svc)),
			zap.Error(err),
		)
		return nil
	}
	return tok
}

func notConnected(turn Turn, svc model.Service, label string) domainOutcome {
	out := domainOutcome{state: StateNotConnected}
	if ShouldFetch(DomainFor(svc), turn.Transcript) {
		out.notice = fmt.Sprintf("The user asked about %s but %s is not connected. Ask them to connect %s from the connectors menu.",
			DomainFor(svc), label, label)
	}
	return out
}

func connectedStatus(label string, tok *model.AccessToken) string {
	if tok.AccountEmail != "" {
		return fmt.Sprintf("%s: connected as %s", label, tok.AccountEmail)
	}
	return label + ": connected"
}

func (d *Dispatcher) handleGmail(ctx context.Context, turn Turn) domainOutcome {
	ctx, span := tracer.Start(ctx, "assistant.gmail")
	defer span.End()

	tok := d.connect(ctx, turn, model.ServiceGmail)
	if tok == nil || d.mail == nil {
		return notConnected(turn, model.ServiceGmail, "Gmail")
	}
	out := domainOutcome{status: connectedStatus("Gmail", tok)}

	if intent, ok := ExtractSendEmail(turn.Transcript); ok {
		result := model.ActionResult{Type: model.ActionSendEmail, Email: &intent}
		key := EmailKey(intent)
		switch {
		case AlreadyHandled(turn.Transcript, model.ActionSendEmail, key):
			d.logger.Info("duplicate action skipped",
				zap.String("turn_id", turn.ID),
				zap.String("action", string(model.ActionSendEmail)),
				zap.String("key", key.String()),
			)
			result.Kind = model.ActionSkipped
			out.state = StateActionSkipped
		default:
			sent, err := d.mail.SendMessage(ctx, tok, intent)
			if err != nil {
				d.logger.Warn("send email failed", zap.String("turn_id", turn.ID), zap.Error(err))
				result.Kind = model.ActionFailure
				result.Error = err.Error()
				out.state = StateActionFailed
			} else {
				result.Kind = model.ActionSuccess
				result.ProviderID = sent.ID
				out.state = StateActionExecuted
			}
		}
		out.action = &result
		d.record(ctx, turn, result)
		return out
	}

	if !ShouldFetch(DomainEmail, turn.Transcript) {
		out.state = StateIdle
		return out
	}

	emails, err := d.mail.ListMessages(ctx, tok, emailQuery(turn.Transcript.LastUserText()), emailFetchLimit)
	if err != nil {
		d.logger.Warn("list emails failed", zap.String("turn_id", turn.ID), zap.Error(err))
		metrics.RecordContextFetch(string(DomainEmail), "error")
		out.state = StateIdle
		out.notice = "Failed to load emails: " + err.Error()
		return out
	}
	metrics.RecordContextFetch(string(DomainEmail), "ok")
	if len(emails) > emailFetchLimit {
		emails = emails[:emailFetchLimit]
	}
	out.state = StateReadFetch
	out.emails = emails
	out.block = formatEmails(emails)
	return out
}

func (d *Dispatcher) handleCalendar(ctx context.Context, turn Turn, now time.Time) domainOutcome {
	ctx, span := tracer.Start(ctx, "assistant.calendar")
	defer span.End()

	tok := d.connect(ctx, turn, model.ServiceCalendar)
	if tok == nil || d.calendar == nil {
		return notConnected(turn, model.ServiceCalendar, "Google Calendar")
	}
	out := domainOutcome{status: connectedStatus("Google Calendar", tok)}

	if intent, ok := ExtractCreateEvent(turn.Transcript, now); ok {
		result := model.ActionResult{Type: model.ActionCreateEvent, Event: &intent}
		key := EventKey(intent)
		switch {
		case AlreadyHandled(turn.Transcript, model.ActionCreateEvent, key):
			d.logger.Info("duplicate action skipped",
				zap.String("turn_id", turn.ID),
				zap.String("action", string(model.ActionCreateEvent)),
				zap.String("key", key.String()),
			)
			result.Kind = model.ActionSkipped
			out.state = StateActionSkipped
		default:
			created, err := d.calendar.CreateEvent(ctx, tok, intent)
			if err != nil {
				d.logger.Warn("create event failed", zap.String("turn_id", turn.ID), zap.Error(err))
				result.Kind = model.ActionFailure
				result.Error = err.Error()
				out.state = StateActionFailed
			} else {
				result.Kind = model.ActionSuccess
				result.ProviderID = created.ID
				result.Link = created.Link
				out.state = StateActionExecuted
			}
		}
		out.action = &result
		d.record(ctx, turn, result)
		return out
	}

	if !ShouldFetch(DomainCalendar, turn.Transcript) {
		out.state = StateIdle
		return out
	}

	from, to, label := calendarWindow(turn.Transcript.LastUserText(), now)
	events, err := d.calendar.ListEvents(ctx, tok, model.EventQuery{
		TimeMin: from,
		TimeMax: to,
		Limit:   calendarFetchLimit,
	})
	if err != nil {
		d.logger.Warn("list events failed", zap.String("turn_id", turn.ID), zap.Error(err))
		metrics.RecordContextFetch(string(DomainCalendar), "error")
		out.state = StateIdle
		out.notice = "Failed to load calendar events: " + err.Error()
		return out
	}
	metrics.RecordContextFetch(string(DomainCalendar), "ok")
	if len(events) > calendarFetchLimit {
		events = events[:calendarFetchLimit]
	}
	out.state = StateReadFetch
	out.events = events
	out.block = formatEvents(events, label)
	return out
}

func (d *Dispatcher) record(ctx context.Context, turn Turn, result model.ActionResult) {
	metrics.RecordAction(string(result.Type), string(result.Kind))
	if d.recorder == nil {
		return
	}
	event := &model.ActionEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TurnID:    turn.ID,
		UserID:    turn.UserID,
		Result:    result,
		CreatedAt: d.now(),
	}
	if err := d.recorder.RecordAction(ctx, event); err != nil {
		d.logger.Warn("failed to record action",
			zap.String("turn_id", turn.ID),
			zap.String("action", string(result.Type)),
			zap.Error(err),
		)
	}
}
