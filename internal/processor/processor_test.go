package processor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MikeSquared-Agency/cerealbox/internal/hermes"
	"github.com/MikeSquared-Agency/cerealbox/internal/parser"
	"github.com/MikeSquared-Agency/cerealbox/internal/rules"
	"github.com/MikeSquared-Agency/cerealbox/internal/skeleton"
	"github.com/MikeSquared-Agency/cerealbox/internal/variants"
)

type recordingBus struct {
	subjects []string
	events   []any
}

func (b *recordingBus) Publish(subject string, data any) error {
	b.subjects = append(b.subjects, subject)
	b.events = append(b.events, data)
	return nil
}

func newTestProcessor(t *testing.T) (*Processor, *recordingBus) {
	t.Helper()
	r, err := rules.LoadEmbedded()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	bus := &recordingBus{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(r, bus, logger), bus
}

func invoke(t *testing.T, p *Processor, tool, payload string) *Response {
	t.Helper()
	resp, err := p.Invoke(context.Background(), tool, []byte(payload))
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", tool, err)
	}
	if resp.RequestID == "" || resp.Tool != tool {
		t.Errorf("%s: bad envelope %+v", tool, resp)
	}
	return resp
}

// roundTrip re-encodes a result the way a remote caller would see it.
func roundTrip(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestToolsListsEveryTool(t *testing.T) {
	p, _ := newTestProcessor(t)

	var names []string
	for _, tool := range p.Tools() {
		names = append(names, tool.Name)
		if tool.Description == "" {
			t.Errorf("tool %s has no description", tool.Name)
		}
	}
	want := []string{
		ToolParsePrompt, ToolGetAvailableCategories, ToolSuggestCategory, ToolGetCategoryRules,
		ToolApplyTransformations, ToolBuildPromptSkeleton, ToolRefineComponent, ToolGenerateVariants,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
}

func TestFullPipeline(t *testing.T) {
	p, bus := newTestProcessor(t)

	parsed := invoke(t, p, ToolParsePrompt, `{"user_prompt": "a tired chef tasting soup in a busy kitchen"}`)
	pc, ok := parsed.Result.(parser.ParsedComponents)
	if !ok {
		t.Fatalf("expected ParsedComponents, got %T", parsed.Result)
	}
	if pc.Subject.Profession != "chef" {
		t.Errorf("expected profession chef, got %q", pc.Subject.Profession)
	}
	if len(pc.SemanticWeights) != 6 {
		t.Errorf("expected 6 weights, got %v", pc.SemanticWeights)
	}
	parsedJSON := roundTrip(t, pc)

	invoke(t, p, ToolSuggestCategory, `{"parsed_components": `+parsedJSON+`}`)

	transformed := invoke(t, p, ToolApplyTransformations,
		`{"parsed_components": `+parsedJSON+`, "category": "mascot_theater", "style_params": {"color_saturation": "neon", "future_knob": 3}}`)
	weightsJSON := roundTrip(t, pc.SemanticWeights)

	built := invoke(t, p, ToolBuildPromptSkeleton,
		`{"transformed_components": `+roundTrip(t, transformed.Result)+`, "category": "mascot_theater", "semantic_weights": `+weightsJSON+`}`)
	s, ok := built.Result.(*skeleton.Skeleton)
	if !ok {
		t.Fatalf("expected *skeleton.Skeleton, got %T", built.Result)
	}
	if !s.Metadata.ReadyForSynthesis || s.Metadata.Category != rules.MascotTheater {
		t.Errorf("unexpected metadata %+v", s.Metadata)
	}

	refined := invoke(t, p, ToolRefineComponent,
		`{"skeleton": `+roundTrip(t, s)+`, "component_name": "subject", "new_value": "a cartoon chef mascot"}`)
	rs := refined.Result.(*skeleton.Skeleton)
	text, _ := rs.Sections.Get("subject")
	if text != "a cartoon chef mascot" {
		t.Errorf("expected refined subject, got %q", text)
	}
	if diff := cmp.Diff(s.Sections.Names(), rs.Sections.Names()); diff != "" {
		t.Errorf("section order lost over the wire (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"subject"}, rs.Metadata.UserModifications); diff != "" {
		t.Errorf("user_modifications mismatch (-want +got):\n%s", diff)
	}

	want := []string{hermes.SubjectSkeletonBuilt, hermes.SubjectSkeletonRefined}
	if diff := cmp.Diff(want, bus.subjects); diff != "" {
		t.Errorf("published subjects mismatch (-want +got):\n%s", diff)
	}
	if evt := bus.events[0].(hermes.SkeletonEvent); evt.RequestID != built.RequestID {
		t.Errorf("expected built event request id %s, got %s", built.RequestID, evt.RequestID)
	}
}

func TestGetAvailableCategoriesKeepsOrder(t *testing.T) {
	p, _ := newTestProcessor(t)

	resp := invoke(t, p, ToolGetAvailableCategories, "")
	data := roundTrip(t, resp.Result)

	last := -1
	for _, id := range rules.RequiredCategories {
		idx := strings.Index(data, `"`+id+`":`)
		if idx < 0 {
			t.Fatalf("category %s missing from %s", id, data)
		}
		if idx < last {
			t.Errorf("category %s out of declaration order", id)
		}
		last = idx
	}
	if !strings.Contains(data, `"ideal_for"`) || !strings.Contains(data, `"mood_match"`) {
		t.Errorf("expected ideal_for and mood_match keys, got %s", data)
	}
}

func TestGenerateVariantsDefaultsToThree(t *testing.T) {
	p, bus := newTestProcessor(t)

	parsed := invoke(t, p, ToolParsePrompt, `{"user_prompt": "a happy dog jumping"}`)
	resp := invoke(t, p, ToolGenerateVariants,
		`{"parsed_components": `+roundTrip(t, parsed.Result)+`, "category": "kid_chaos"}`)

	vs, ok := resp.Result.([]variants.Variant)
	if !ok {
		t.Fatalf("expected []variants.Variant, got %T", resp.Result)
	}
	if len(vs) != DefaultVariantCount {
		t.Errorf("expected %d variants, got %d", DefaultVariantCount, len(vs))
	}
	evt := bus.events[len(bus.events)-1].(hermes.SkeletonEvent)
	if evt.Variants != DefaultVariantCount || evt.Tool != ToolGenerateVariants {
		t.Errorf("unexpected event %+v", evt)
	}
}

func TestInvokeErrors(t *testing.T) {
	p, bus := newTestProcessor(t)

	tests := []struct {
		name    string
		tool    string
		payload string
		check   func(error) bool
	}{
		{"unknown tool", "make_coffee", `{}`, func(err error) bool { return errors.Is(err, ErrUnknownTool) }},
		{"missing prompt", ToolParsePrompt, `{}`, isPayloadError},
		{"malformed json", ToolParsePrompt, `{"user_prompt":`, isPayloadError},
		{"missing category", ToolGetCategoryRules, `{}`, isPayloadError},
		{"missing new value", ToolRefineComponent, `{"skeleton": {"sections": {}}, "component_name": "subject"}`, isPayloadError},
		{"unknown category", ToolGetCategoryRules, `{"category": "space_opera"}`, isUnknownKey},
		{"unknown component", ToolRefineComponent,
			`{"skeleton": {"sections": {"subject": "a dog"}}, "component_name": "cape", "new_value": "red"}`, isUnknownKey},
		{"count out of range", ToolGenerateVariants,
			`{"parsed_components": {}, "category": "kid_chaos", "count": 9}`, isRangeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := p.Invoke(context.Background(), tt.tool, []byte(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if resp == nil || resp.RequestID == "" {
				t.Errorf("expected envelope with request id, got %+v", resp)
			}
		})
	}
	if len(bus.subjects) != 0 {
		t.Errorf("expected no events on failure, got %v", bus.subjects)
	}
}

func TestHandleToolRequest(t *testing.T) {
	p, _ := newTestProcessor(t)

	reply := p.HandleToolRequest(hermes.SubjectToolPrefix+ToolGetCategoryRules, []byte(`{"category": "nope"}`))

	var resp Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("failed to decode reply %s: %v", reply, err)
	}
	if resp.Tool != ToolGetCategoryRules {
		t.Errorf("expected tool %s, got %s", ToolGetCategoryRules, resp.Tool)
	}
	if !strings.HasPrefix(resp.Error, "unknown category: nope") {
		t.Errorf("unexpected error %q", resp.Error)
	}
	if diff := cmp.Diff(rules.RequiredCategories, resp.Valid); diff != "" {
		t.Errorf("valid ids mismatch (-want +got):\n%s", diff)
	}

	reply = p.HandleToolRequest(hermes.SubjectToolPrefix+ToolParsePrompt, []byte(`{"user_prompt": "a robot"}`))
	if err := json.Unmarshal(reply, &resp); err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	if !strings.Contains(string(reply), `"result"`) {
		t.Errorf("expected result in reply, got %s", reply)
	}
}

func isPayloadError(err error) bool {
	var pe *PayloadError
	return errors.As(err, &pe)
}

func isUnknownKey(err error) bool {
	var uk *rules.UnknownKeyError
	return errors.As(err, &uk)
}

func isRangeError(err error) bool {
	var re *variants.RangeError
	return errors.As(err, &re)
}
