package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"companion-chat/backend/pkg/logger"
	"companion-chat/backend/pkg/observability"
	"companion-chat/backend/pkg/resilience"
)

const tracerName = "companion-chat/ai"

// Flows runs the dialogue, image and compliment flows against one generator. Calls are
// single shot: a failed call is reported to the caller and never retried here.
type Flows struct {
	gen     Generator
	breaker *resilience.CircuitBreaker
	timeout time.Duration
	tracer  trace.Tracer
	metrics *observability.Metrics
	log     *logger.Logger
}

// FlowsOption customizes Flows.
type FlowsOption func(*Flows)

// WithTimeout bounds every generator call.
func WithTimeout(d time.Duration) FlowsOption {
	return func(f *Flows) { f.timeout = d }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) FlowsOption {
	return func(f *Flows) { f.breaker = cb }
}

// NewFlows wires the flows around gen.
func NewFlows(gen Generator, log *logger.Logger, opts ...FlowsOption) *Flows {
	log = log.WithComponent("ai")
	f := &Flows{
		gen:     gen,
		timeout: 60 * time.Second,
		tracer:  otel.Tracer(tracerName),
		metrics: observability.Global(),
		log:     log,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.breaker == nil {
		cfg := resilience.DefaultConfig("generator-" + gen.Name())
		cfg.IsFailure = CountsAgainstBreaker
		f.breaker = resilience.NewCircuitBreaker(cfg, log)
	}
	return f
}

// CountsAgainstBreaker reports whether err says something about upstream health.
// Safety blocks and caller cancellations do not.
func CountsAgainstBreaker(err error) bool {
	return !errors.Is(err, ErrBlocked) && !errors.Is(err, ErrNoImage) && !errors.Is(err, context.Canceled)
}

// Breaker exposes the circuit breaker for health reporting.
func (f *Flows) Breaker() *resilience.CircuitBreaker {
	return f.breaker
}

// Dialogue produces the companion's reply to one message.
func (f *Flows) Dialogue(ctx context.Context, in DialogueInput) (DialogueOutput, error) {
	in.Language = languageOrDefault(in.Language)
	if err := requireFields(map[string]string{
		"message":       in.Message,
		"userName":      in.UserName,
		"companionName": in.CompanionName,
	}); err != nil {
		return DialogueOutput{}, err
	}

	req, err := DialoguePrompt(in)
	if err != nil {
		return DialogueOutput{}, err
	}

	text, err := f.text(ctx, "dialogue", in.Language, req)
	if err != nil {
		return DialogueOutput{}, err
	}
	return DialogueOutput{Response: f.orFallback(ctx, KindDialogue, in.Language, text)}, nil
}

// Compliment produces a compliment about the attached photo.
func (f *Flows) Compliment(ctx context.Context, in ComplimentInput) (ComplimentOutput, error) {
	in.Language = languageOrDefault(in.Language)
	if err := requireFields(map[string]string{
		"photoDataUri":  in.PhotoDataURI,
		"userName":      in.UserName,
		"companionName": in.CompanionName,
	}); err != nil {
		return ComplimentOutput{}, err
	}

	photo, err := ParseImageDataURI(in.PhotoDataURI)
	if err != nil {
		return ComplimentOutput{}, err
	}

	req, err := ComplimentPrompt(in, photo)
	if err != nil {
		return ComplimentOutput{}, err
	}

	text, err := f.text(ctx, "compliment", in.Language, req)
	if err != nil {
		return ComplimentOutput{}, err
	}
	return ComplimentOutput{Compliment: f.orFallback(ctx, KindCompliment, in.Language, text)}, nil
}

// Image generates an image for the prompt. There is no textual fallback: a response
// without an image fails with ErrNoImage.
func (f *Flows) Image(ctx context.Context, in ImageInput) (ImageOutput, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return ImageOutput{}, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	prompt, err := ImagePrompt(in)
	if err != nil {
		return ImageOutput{}, err
	}

	var img Image
	err = f.call(ctx, "image", "", func(ctx context.Context) error {
		var genErr error
		img, genErr = f.gen.GenerateImage(ctx, prompt)
		return genErr
	})
	switch {
	case errors.Is(err, ErrBlocked), errors.Is(err, ErrNoImage):
		return ImageOutput{}, fmt.Errorf("%w: %v", ErrNoImage, err)
	case err != nil:
		return ImageOutput{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	case len(img.Data) == 0:
		return ImageOutput{}, ErrNoImage
	}

	if img.MIMEType == "" {
		img.MIMEType = "image/png"
	}
	return ImageOutput{ImageURL: img.DataURI()}, nil
}

// text runs a text generation. A safety block is not an error: it yields empty text so
// the caller serves the fallback.
func (f *Flows) text(ctx context.Context, flow, language string, req TextRequest) (string, error) {
	var out string
	err := f.call(ctx, flow, language, func(ctx context.Context) error {
		var genErr error
		out, genErr = f.gen.GenerateText(ctx, req)
		return genErr
	})
	if errors.Is(err, ErrBlocked) {
		logger.FromContext(ctx, f.log).Info("Model output blocked, serving fallback", "flow", flow)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return out, nil
}

func (f *Flows) call(ctx context.Context, flow, language string, fn func(ctx context.Context) error) error {
	ctx, span := f.tracer.Start(ctx, "ai."+flow,
		trace.WithAttributes(
			attribute.String("ai.flow", flow),
			attribute.String("ai.provider", f.gen.Name()),
			attribute.String("ai.language", language),
		),
	)
	defer span.End()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	err := f.breaker.Execute(ctx, fn)
	f.metrics.GenerationLatency.WithLabelValues(flow).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case errors.Is(err, ErrBlocked):
		outcome = "blocked"
	case errors.Is(err, resilience.ErrCircuitOpen):
		outcome = "circuit_open"
	case err != nil:
		outcome = "error"
	}
	f.metrics.GenerationRequests.WithLabelValues(flow, outcome).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if outcome != "blocked" {
			logger.FromContext(ctx, f.log).Warn("Generation failed",
				"flow", flow,
				"provider", f.gen.Name(),
				"error", err.Error(),
			)
		}
	}
	return err
}

func (f *Flows) orFallback(ctx context.Context, kind Kind, language, text string) string {
	if text = strings.TrimSpace(text); text != "" {
		return text
	}
	family := languageFamily(language)
	f.metrics.FallbackResponses.WithLabelValues(string(kind), family).Inc()
	logger.FromContext(ctx, f.log).Info("Empty model output, serving fallback", "flow", string(kind), "language", language)
	return FallbackText(kind, language)
}

func languageOrDefault(language string) string {
	if strings.TrimSpace(language) == "" {
		return DefaultLanguage
	}
	return language
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
}
