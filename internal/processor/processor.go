package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/cerealbox/internal/hermes"
	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
	"github.com/MikeSquared-Agency/cerealbox/internal/refinement"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/scorer"
	"github.com/MikeSquared-Agency/cerealbox/internal/skeleton"
	"github.com/MikeSquared-Agency/cerealbox/internal/transform"
	"github.com/MikeSquared-Agency/cerealbox/internal/variants"
	"github.com/MikeSquared-Agency/cerealbox/internal/weights"
)

// Tool names.
const (
	ToolParsePrompt            = "parse_prompt"
	ToolGetAvailableCategories = "get_available_categories"
	ToolSuggestCategory        = "suggest_category"
	ToolGetCategoryRules       = "get_category_rules"
	ToolApplyTransformations   = "apply_transformations"
	ToolBuildPromptSkeleton    = "build_prompt_skeleton"
	ToolRefineComponent        = "refine_component"
	ToolGenerateVariants       = "generate_variants"
)

// DefaultVariantCount is used when generate_variants omits count.
const DefaultVariantCount = 3

// ErrUnknownTool is returned by Invoke for a name with no handler.
var ErrUnknownTool = errors.New("unknown tool")

// PayloadError reports a payload that could not be decoded or failed validation.
type PayloadError struct {
	Tool string
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Tool, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Bus publishes events. *hermes.Client satisfies it.
type Bus interface {
	Publish(subject string, data any) error
}

// Tool describes one invocable operation.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Response is the envelope returned for every invocation over HTTP and NATS.
type Response struct {
	RequestID string   `json:"request_id"`
	Tool      string   `json:"tool"`
	Result    any      `json:"result,omitempty"`
	Error     string   `json:"error,omitempty"`
	Valid     []string `json:"valid,omitempty"`
}

// SetError records err on the envelope, including the accepted keys for
// unknown-key failures.
func (r *Response) SetError(err error) {
	r.Result = nil
	r.Error = err.Error()
	var unknown *rules.UnknownKeyError
	if errors.As(err, &unknown) {
		r.Valid = unknown.Valid
	}
}

type handlerFunc func(ctx context.Context, requestID string, payload []byte) (any, error)

// Processor dispatches tool invocations to the prompt pipeline.
type Processor struct {
	rules    *rules.Rules
	bus      Bus
	refined  *refinement.Publisher
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	tools    []Tool
	handlers map[string]handlerFunc
}

// New creates a processor over a loaded rule set. bus may be nil, in which
// case no events are published.
func New(r *rules.Rules, bus Bus, logger *slog.Logger) *Processor {
	p := &Processor{
		rules:    r,
		bus:      bus,
		refined:  refinement.NewPublisher(bus),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
		handlers: make(map[string]handlerFunc),
	}

	p.register(ToolParsePrompt, "Parse a natural language prompt into semantic components with weights", p.parsePrompt)
	p.register(ToolGetAvailableCategories, "List all cereal box categories with descriptions", p.getAvailableCategories)
	p.register(ToolSuggestCategory, "Suggest the best fitting category for parsed components", p.suggestCategory)
	p.register(ToolGetCategoryRules, "Return the full transformation rules for one category", p.getCategoryRules)
	p.register(ToolApplyTransformations, "Apply category transformations to parsed components", p.applyTransformations)
	p.register(ToolBuildPromptSkeleton, "Assemble transformed components into a weighted prompt skeleton", p.buildPromptSkeleton)
	p.register(ToolRefineComponent, "Replace one section of an existing skeleton", p.refineComponent)
	p.register(ToolGenerateVariants, "Generate skeleton variants across the fixed style presets", p.generateVariants)
	return p
}

func (p *Processor) register(name, description string, h handlerFunc) {
	p.tools = append(p.tools, Tool{Name: name, Description: description})
	p.handlers[name] = h
}

// Tools lists the registered tools in registration order.
func (p *Processor) Tools() []Tool {
	out := make([]Tool, len(p.tools))
	copy(out, p.tools)
	return out
}

// Invoke runs one tool. The returned Response always carries the request id
// and tool name, even on error.
func (p *Processor) Invoke(ctx context.Context, name string, payload []byte) (*Response, error) {
	resp := &Response{RequestID: uuid.New().String(), Tool: name}

	h, ok := p.handlers[name]
	if !ok {
		return resp, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := p.now()
	result, err := h(ctx, resp.RequestID, payload)
	if err != nil {
		p.logger.Warn("tool failed", "tool", name, "request_id", resp.RequestID, "error", err)
		return resp, err
	}
	p.logger.Debug("tool invoked", "tool", name, "request_id", resp.RequestID, "duration", p.now().Sub(start))
	resp.Result = result
	return resp, nil
}

// HandleToolRequest is the NATS handler for cerealbox.tools.<name>. It always
// returns a JSON reply envelope.
func (p *Processor) HandleToolRequest(subject string, data []byte) []byte {
	name := strings.TrimPrefix(subject, hermes.SubjectToolPrefix)

	resp, err := p.Invoke(context.Background(), name, data)
	if err != nil {
		resp.SetError(err)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		p.logger.Error("failed to marshal reply", "tool", name, "error", err)
		return []byte(fmt.Sprintf(`{"request_id":%q,"tool":%q,"error":"internal error"}`, resp.RequestID, name))
	}
	return out
}

// decode unmarshals and validates a payload. An empty payload decodes as {}.
func (p *Processor) decode(tool string, payload []byte, dst any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return &PayloadError{Tool: tool, Err: err}
	}
	if err := p.validate.Struct(dst); err != nil {
		return &PayloadError{Tool: tool, Err: err}
	}
	return nil
}

func (p *Processor) publish(subject string, data any) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (p *Processor) publishBuilt(requestID, tool, category string, s *skeleton.Skeleton, count int) {
	p.publish(hermes.SubjectSkeletonBuilt, hermes.SkeletonEvent{
		RequestID:       requestID,
		Tool:            tool,
		Category:        category,
		Sections:        s.Sections.Names(),
		EstimatedTokens: s.Metadata.EstimatedTokens,
		Variants:        count,
		Timestamp:       p.now().UTC(),
	})
}

type parsePromptRequest struct {
	UserPrompt string `json:"user_prompt" validate:"required"`
}

func (p *Processor) parsePrompt(_ context.Context, _ string, payload []byte) (any, error) {
	var req parsePromptRequest
	if err := p.decode(ToolParsePrompt, payload, &req); err != nil {
		return nil, err
	}
	parsed := parser.Parse(req.UserPrompt, p.rules.Maps())
	parsed.SemanticWeights = weights.Compute(parsed)
	return parsed, nil
}

func (p *Processor) getAvailableCategories(_ context.Context, _ string, _ []byte) (any, error) {
	return Catalog(p.rules), nil
}

type suggestCategoryRequest struct {
	ParsedComponents *parser.ParsedComponents `json:"parsed_components" validate:"required"`
}

func (p *Processor) suggestCategory(_ context.Context, _ string, payload []byte) (any, error) {
	var req suggestCategoryRequest
	if err := p.decode(ToolSuggestCategory, payload, &req); err != nil {
		return nil, err
	}
	return scorer.Suggest(*req.ParsedComponents, p.rules), nil
}

type getCategoryRulesRequest struct {
	Category string `json:"category" validate:"required"`
}

func (p *Processor) getCategoryRules(_ context.Context, _ string, payload []byte) (any, error) {
	var req getCategoryRulesRequest
	if err := p.decode(ToolGetCategoryRules, payload, &req); err != nil {
		return nil, err
	}
	return p.rules.Category(req.Category)
}

type applyTransformationsRequest struct {
	ParsedComponents *parser.ParsedComponents `json:"parsed_components" validate:"required"`
	Category         string                   `json:"category" validate:"required"`
	StyleParams      transform.Params         `json:"style_params"`
}

func (p *Processor) applyTransformations(_ context.Context, _ string, payload []byte) (any, error) {
	var req applyTransformationsRequest
	if err := p.decode(ToolApplyTransformations, payload, &req); err != nil {
		return nil, err
	}
	return transform.Apply(*req.ParsedComponents, p.rules, req.Category, req.StyleParams)
}

type buildPromptSkeletonRequest struct {
	TransformedComponents *transform.Components `json:"transformed_components" validate:"required"`
	Category              string                `json:"category" validate:"required"`
	SemanticWeights       map[string]int        `json:"semantic_weights"`
}

func (p *Processor) buildPromptSkeleton(_ context.Context, requestID string, payload []byte) (any, error) {
	var req buildPromptSkeletonRequest
	if err := p.decode(ToolBuildPromptSkeleton, payload, &req); err != nil {
		return nil, err
	}
	s, err := skeleton.Assemble(*req.TransformedComponents, p.rules, req.Category, req.SemanticWeights)
	if err != nil {
		return nil, err
	}
	p.publishBuilt(requestID, ToolBuildPromptSkeleton, req.Category, s, 0)
	return s, nil
}

type refineComponentRequest struct {
	Skeleton      *skeleton.Skeleton `json:"skeleton" validate:"required"`
	ComponentName string             `json:"component_name" validate:"required"`
	NewValue      *string            `json:"new_value" validate:"required"`
}

func (p *Processor) refineComponent(_ context.Context, requestID string, payload []byte) (any, error) {
	var req refineComponentRequest
	if err := p.decode(ToolRefineComponent, payload, &req); err != nil {
		return nil, err
	}
	s, err := refinement.Refine(req.Skeleton, req.ComponentName, *req.NewValue)
	if err != nil {
		return nil, err
	}
	if err := p.refined.PublishRefined(requestID, req.ComponentName, s); err != nil {
		p.logger.Warn("failed to publish refinement", "request_id", requestID, "error", err)
	}
	return s, nil
}

type generateVariantsRequest struct {
	ParsedComponents *parser.ParsedComponents `json:"parsed_components" validate:"required"`
	Category         string                   `json:"category" validate:"required"`
	Count            *int                     `json:"count"`
}

func (p *Processor) generateVariants(_ context.Context, requestID string, payload []byte) (any, error) {
	var req generateVariantsRequest
	if err := p.decode(ToolGenerateVariants, payload, &req); err != nil {
		return nil, err
	}
	count := DefaultVariantCount
	if req.Count != nil {
		count = *req.Count
	}
	vs, err := variants.Generate(*req.ParsedComponents, p.rules, req.Category, count)
	if err != nil {
		return nil, err
	}
	p.publishBuilt(requestID, ToolGenerateVariants, req.Category, vs[0].Skeleton, len(vs))
	return vs, nil
}
