package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ericfisherdev/raverify/internal/domain/model"
)

// DefaultItemInterval is the pause between two consecutive item checks.
const DefaultItemInterval = time.Second

var (
	// ErrRunInProgress is returned when a verification run is requested while
	// another one is still streaming results.
	ErrRunInProgress = errors.New("a verification run is already in progress")
	// ErrInvalidRequest wraps field-level validation failures of a VerificationRequest.
	ErrInvalidRequest = errors.New("invalid verification request")
	// ErrNoItems is returned when the submission text references no games or achievements.
	ErrNoItems = errors.New("submission contains no game or achievement links")
)

// VerificationRequest is everything a run needs besides the credential.
type VerificationRequest struct {
	Username    string `validate:"required,alphanum,max=32"`
	AltUsername string `validate:"omitempty,alphanum,max=32"`
	CheckDate   bool
	StartDate   time.Time
	EndDate     time.Time
	Items       []model.VerificationItem `validate:"dive"`
	DateFormat  model.DateFormat         `validate:"gte=0,lte=4"`
}

// RequestFromSnapshot builds a run request from exported form state.
func RequestFromSnapshot(snap model.SubmissionSnapshot, format model.DateFormat) VerificationRequest {
	return VerificationRequest{
		Username:    strings.TrimSpace(snap.Username),
		AltUsername: strings.TrimSpace(snap.AltUsername),
		CheckDate:   snap.CheckDate,
		StartDate:   snap.StartDate,
		EndDate:     snap.EndDate,
		Items:       snap.Items(),
		DateFormat:  format,
	}
}

// RunSummary describes a finished (or aborted) run.
type RunSummary struct {
	RunID    string
	Items    int
	Passed   int
	Duration time.Duration
}

// RenderFunc receives each result row as soon as it is known, in run order.
// Returning an error aborts the run.
type RenderFunc func(model.ResultRow) error

// Runner drives a verification run: it validates the request, resets the
// shared backoff, paces item checks and streams each row to the caller.
// At most one run executes at a time so the backoff state stays per-run.
type Runner struct {
	client   *RateLimitedClient
	verifier *Verifier
	interval time.Duration
	validate *validator.Validate
	mu       sync.Mutex
}

// NewRunner creates a Runner. itemInterval <= 0 disables pacing.
func NewRunner(client *RateLimitedClient, itemInterval time.Duration) *Runner {
	return &Runner{
		client:   client,
		verifier: NewVerifier(client),
		interval: itemInterval,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks req without running it.
func (r *Runner) Validate(req VerificationRequest) error {
	if err := r.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(req.Items) == 0 {
		return ErrNoItems
	}
	if _, err := model.NewDateWindow(req.CheckDate, req.StartDate, req.EndDate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Run verifies every item of req in run order (games first) and calls render
// once per item. Per-item remote failures are rendered as failed rows; only
// validation, cancellation and render errors end the run early.
func (r *Runner) Run(ctx context.Context, auth model.Credential, req VerificationRequest, render RenderFunc) (RunSummary, error) {
	if !r.mu.TryLock() {
		return RunSummary{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	if !auth.Complete() {
		return RunSummary{}, ErrIncompleteCredential
	}
	if err := r.Validate(req); err != nil {
		return RunSummary{}, err
	}
	window, err := model.NewDateWindow(req.CheckDate, req.StartDate, req.EndDate)
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	summary := RunSummary{RunID: uuid.NewString()}
	logger := slog.With("run_id", summary.RunID)
	started := time.Now()

	identity := Identity{Primary: req.Username, Alt: req.AltUsername}
	items := model.RunOrder(req.Items)
	pacer := newPacer(r.interval)

	r.client.ResetBackoff()
	logger.Info("verification run started", "items", len(items), "username", req.Username, "check_date", req.CheckDate)

	for i, item := range items {
		if err := pacer.Wait(ctx); err != nil {
			summary.Duration = time.Since(started)
			logger.Info("verification run cancelled", "completed", summary.Items, "error", err)
			return summary, fmt.Errorf("waiting for next item: %w", err)
		}

		var result model.VerificationResult
		switch item.Kind {
		case model.ItemKindGame:
			result = r.verifier.CheckGame(ctx, auth, identity, item.ID, window, req.DateFormat)
		default:
			result = r.verifier.CheckAchievement(ctx, auth, identity, item.ID, window, req.DateFormat)
		}

		summary.Items++
		if result.Status.Success {
			summary.Passed++
		}
		logger.Debug("item verified", "index", i, "kind", item.Kind, "id", item.ID, "status", result.Status.Classes())

		if err := render(model.ResultRow{Index: i, Item: item, Result: result}); err != nil {
			summary.Duration = time.Since(started)
			return summary, fmt.Errorf("rendering result %d: %w", i, err)
		}
	}

	summary.Duration = time.Since(started)
	logger.Info("verification run finished",
		"items", summary.Items,
		"passed", summary.Passed,
		"duration", summary.Duration,
		"backoff_failures", r.client.backoff.Failures(),
	)
	return summary, nil
}

// newPacer returns a limiter releasing the first item immediately and each
// following one after interval.
func newPacer(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
