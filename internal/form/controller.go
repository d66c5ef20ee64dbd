// Package form drives the lead-capture form: inline validation, the submit
// cycle with its simulated delay, persistence and the success/error UI.
package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/leadform/internal/clock"
	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/pkg/logging"
)

var formTracer = otel.Tracer("leadform.internal.form")

// ErrorMessage is shown in the banner when a submission fails.
const ErrorMessage = "Something went wrong. Please try again."

// LeadStore persists captured leads. *leads.Store implements it.
type LeadStore interface {
	Store(ctx context.Context, rec leads.Record)
}

// Options tunes element ids, fields and timings.
type Options struct {
	// FormAnchor is the id of the section call-to-action links jump to.
	FormAnchor string
	// SuccessID is the id of the success panel.
	SuccessID string

	RequiredFields []string
	EmailField     string

	BannerTTL     time.Duration
	CTAFocusDelay time.Duration
	PulseDelay    time.Duration
	PulseDuration time.Duration
	PulseScale    float64
	FocusScale    float64

	RevealSelectors []string
	RevealRatio     float64
}

// DefaultOptions mirrors the landing page the form ships with.
func DefaultOptions() Options {
	return Options{
		FormAnchor:      "email-form",
		SuccessID:       "success-message",
		RequiredFields:  leads.DefaultRequiredFields,
		EmailField:      leads.FieldEmail,
		BannerTTL:       5 * time.Second,
		CTAFocusDelay:   800 * time.Millisecond,
		PulseDelay:      100 * time.Millisecond,
		PulseDuration:   200 * time.Millisecond,
		PulseScale:      1.02,
		FocusScale:      1.02,
		RevealSelectors: []string{".level", ".benefit", ".stat"},
		RevealRatio:     0.1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FormAnchor == "" {
		o.FormAnchor = d.FormAnchor
	}
	if o.SuccessID == "" {
		o.SuccessID = d.SuccessID
	}
	if len(o.RequiredFields) == 0 {
		o.RequiredFields = d.RequiredFields
	}
	if o.EmailField == "" {
		o.EmailField = d.EmailField
	}
	if o.BannerTTL <= 0 {
		o.BannerTTL = d.BannerTTL
	}
	if o.CTAFocusDelay <= 0 {
		o.CTAFocusDelay = d.CTAFocusDelay
	}
	if o.PulseDelay <= 0 {
		o.PulseDelay = d.PulseDelay
	}
	if o.PulseDuration <= 0 {
		o.PulseDuration = d.PulseDuration
	}
	if o.PulseScale == 0 {
		o.PulseScale = d.PulseScale
	}
	if o.FocusScale == 0 {
		o.FocusScale = d.FocusScale
	}
	if o.RevealSelectors == nil {
		o.RevealSelectors = d.RevealSelectors
	}
	if o.RevealRatio <= 0 {
		o.RevealRatio = d.RevealRatio
	}
	return o
}

// Config carries the controller's collaborators. View and Store are
// required; the rest default to production implementations.
type Config struct {
	View      View
	Store     LeadStore
	Submitter Submitter
	Tracker   leads.Tracker
	Clock     clock.Clock
	Scheduler Scheduler
	Logger    *logging.Logger
	Metrics   *metrics.FormMetrics
	Context   context.Context
	Options   Options
}

// Controller owns the SubmissionState of one form instance. Every method
// must run on the Scheduler's goroutine.
type Controller struct {
	view      View
	store     LeadStore
	submitter Submitter
	tracker   leads.Tracker
	clock     clock.Clock
	sched     Scheduler
	logger    *logging.Logger
	metrics   *metrics.FormMetrics
	ctx       context.Context
	opts      Options

	required    map[string]bool
	reveal      map[string]bool
	state       State
	fieldErrors map[string]string

	bannerSeq   int
	bannerID    string
	bannerTimer clock.Timer

	removers []func()

	// pending is the submission whose outcome has not been applied yet.
	pending *inflight
}

type inflight struct {
	ctx     context.Context
	span    trace.Span
	rec     leads.Record
	started time.Time
	future  *Future
}

// New builds a controller.
func New(cfg Config) *Controller {
	if cfg.View == nil {
		panic("form: view required")
	}
	if cfg.Store == nil {
		panic("form: lead store required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Submitter == nil {
		cfg.Submitter = NewSimulatedSubmitter(cfg.Clock, DefaultSubmitLatency)
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = Inline{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	opts := cfg.Options.withDefaults()

	c := &Controller{
		view:        cfg.View,
		store:       cfg.Store,
		submitter:   cfg.Submitter,
		tracker:     cfg.Tracker,
		clock:       cfg.Clock,
		sched:       cfg.Scheduler,
		logger:      cfg.Logger.Component("form"),
		metrics:     cfg.Metrics,
		ctx:         cfg.Context,
		opts:        opts,
		required:    make(map[string]bool, len(opts.RequiredFields)),
		reveal:      make(map[string]bool, len(opts.RevealSelectors)),
		fieldErrors: make(map[string]string),
	}
	for _, name := range opts.RequiredFields {
		c.required[name] = true
	}
	for _, sel := range opts.RevealSelectors {
		c.reveal[sel] = true
	}
	return c
}

// State returns the current submission state.
func (c *Controller) State() State {
	return c.state
}

// FieldError returns the inline error currently shown for field.
func (c *Controller) FieldError(field string) (string, bool) {
	msg, ok := c.fieldErrors[field]
	return msg, ok
}

// ValidateField checks a single field and updates its decoration.
func (c *Controller) ValidateField(field string) bool {
	err := leads.CheckField(leads.Field{
		Name:     field,
		Value:    c.view.Value(field),
		Required: c.required[field],
	})
	return c.applyFieldResult(field, err)
}

// ValidateEmail checks the email format and updates its decoration.
func (c *Controller) ValidateEmail(field string) bool {
	err := leads.CheckEmail(leads.Field{
		Name:     field,
		Value:    c.view.Value(field),
		Required: c.required[field],
	})
	return c.applyFieldResult(field, err)
}

// ValidateForm validates every required field and then the email field.
// All fields are visited so every invalid one gets decorated.
func (c *Controller) ValidateForm() bool {
	valid := true
	for _, field := range c.opts.RequiredFields {
		if !c.ValidateField(field) {
			valid = false
		}
	}
	if !c.ValidateEmail(c.opts.EmailField) {
		valid = false
	}
	return valid
}

func (c *Controller) applyFieldResult(field string, err error) bool {
	if err == nil {
		c.ClearFieldError(field)
		return true
	}
	var fe *leads.FieldError
	msg := err.Error()
	if errors.As(err, &fe) {
		msg = fe.Message
	}
	c.showFieldError(field, msg)
	return false
}

func (c *Controller) showFieldError(field, message string) {
	c.ClearFieldError(field)
	c.fieldErrors[field] = message
	c.view.ShowFieldError(field, message)
	c.metrics.ObserveFieldError(field)
}

// ClearFieldError removes the inline error for field. It does nothing when
// the field is already clean.
func (c *Controller) ClearFieldError(field string) {
	if _, ok := c.fieldErrors[field]; !ok {
		return
	}
	delete(c.fieldErrors, field)
	c.view.ClearFieldError(field)
}

// HandleSubmit runs one submit cycle. It returns once the submission is in
// flight; completion is posted back through the Scheduler.
func (c *Controller) HandleSubmit(ev *Event) {
	ev.PreventDefault()

	// the submit control is disabled while a submission is in flight
	if c.state == StateSubmitting {
		return
	}
	if !c.ValidateForm() {
		c.metrics.ObserveSubmission(metrics.OutcomeInvalid, 0)
		return
	}

	c.setState(StateSubmitting)
	c.view.SetLoading(true)

	ctx, span := formTracer.Start(c.ctx, "form.submit")
	started := c.clock.Now()

	var rec leads.Record
	var future *Future
	err := c.guard(func() error {
		rec = leads.NewRecord(c.values(), started)
		span.SetAttributes(attribute.String("leadform.timestamp", rec.Timestamp))
		future = c.submitter.Submit(ctx, rec)
		if future == nil {
			return errors.New("form: submitter returned no future")
		}
		return nil
	})
	if err != nil {
		c.complete(ctx, span, rec, started, err)
		return
	}

	inf := &inflight{ctx: ctx, span: span, rec: rec, started: started, future: future}
	c.pending = inf
	future.Then(func(err error) {
		c.sched.Post(func() {
			c.finish(inf, err)
		})
	})
}

// Pending reports whether a submission is still waiting on its outcome.
func (c *Controller) Pending() bool {
	return c.pending != nil
}

// Drain applies the outcome of a submission still in flight. Call it only
// once the Scheduler has stopped; completions posted after that are dropped
// and Drain runs them on the caller's goroutine instead. When ctx ends first
// the submission is abandoned and its span closed with ctx's error.
func (c *Controller) Drain(ctx context.Context) error {
	inf := c.pending
	if inf == nil {
		return nil
	}
	select {
	case <-inf.future.done:
		c.finish(inf, inf.future.err)
		return nil
	case <-ctx.Done():
		c.pending = nil
		inf.span.RecordError(ctx.Err())
		inf.span.SetStatus(codes.Error, "submission abandoned")
		inf.span.End()
		c.logger.Warn("in-flight submission abandoned", "timestamp", inf.rec.Timestamp, "error", ctx.Err())
		return ctx.Err()
	}
}

// finish completes inf unless it was already completed.
func (c *Controller) finish(inf *inflight, err error) {
	if c.pending != inf {
		return
	}
	c.pending = nil
	c.complete(inf.ctx, inf.span, inf.rec, inf.started, err)
}

func (c *Controller) complete(ctx context.Context, span trace.Span, rec leads.Record, started time.Time, err error) {
	defer span.End()
	defer c.view.SetLoading(false)

	if err == nil {
		err = c.guard(func() error {
			c.succeed(ctx, rec)
			return nil
		})
	}
	elapsed := c.clock.Now().Sub(started).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		c.fail(err)
		c.metrics.ObserveSubmission(metrics.OutcomeError, elapsed)
		return
	}
	c.metrics.ObserveSubmission(metrics.OutcomeSuccess, elapsed)
}

func (c *Controller) succeed(ctx context.Context, rec leads.Record) {
	c.store.Store(ctx, rec)
	c.setState(StateSuccess)

	c.view.HideForm()
	c.view.ShowSuccess()
	c.view.ScrollIntoView(c.opts.SuccessID, "center")
	c.pulse(c.opts.SuccessID)

	if c.tracker != nil {
		c.tracker.Track(ctx, rec)
	}
	c.logger.Info("lead captured", "email", rec.Email, "timestamp", rec.Timestamp)
}

func (c *Controller) fail(err error) {
	c.logger.Error("form submission error", "error", err)
	c.setState(StateError)
	c.showBanner(ErrorMessage)
}

func (c *Controller) pulse(target string) {
	c.after(c.opts.PulseDelay, func() {
		c.view.SetScale(target, c.opts.PulseScale)
		c.after(c.opts.PulseDuration, func() {
			c.view.SetScale(target, 1)
		})
	})
}

// showBanner replaces any visible banner and schedules its removal.
func (c *Controller) showBanner(message string) {
	c.removeBanner()
	c.bannerSeq++
	id := fmt.Sprintf("error-banner-%d", c.bannerSeq)
	c.bannerID = id
	c.view.ShowBanner(id, message)
	c.bannerTimer = c.after(c.opts.BannerTTL, func() {
		if c.bannerID == id {
			c.bannerID = ""
			c.bannerTimer = nil
			c.view.RemoveBanner(id)
		}
	})
}

func (c *Controller) removeBanner() {
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	if c.bannerID != "" {
		c.view.RemoveBanner(c.bannerID)
		c.bannerID = ""
	}
}

// Banner returns the id of the visible banner, if any.
func (c *Controller) Banner() (string, bool) {
	return c.bannerID, c.bannerID != ""
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.view.StateChanged(s)
}

func (c *Controller) values() map[string]string {
	return map[string]string{
		leads.FieldFirstName: c.view.Value(leads.FieldFirstName),
		leads.FieldLastName:  c.view.Value(leads.FieldLastName),
		leads.FieldEmail:     c.view.Value(leads.FieldEmail),
		leads.FieldCompany:   c.view.Value(leads.FieldCompany),
		leads.FieldRole:      c.view.Value(leads.FieldRole),
	}
}

// after runs fn on the scheduler once d has elapsed.
func (c *Controller) after(d time.Duration, fn func()) clock.Timer {
	return c.clock.AfterFunc(d, func() {
		c.sched.Post(fn)
	})
}

// guard converts a panic in fn into an error.
func (c *Controller) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("form: panic: %v", r)
		}
	}()
	return fn()
}
