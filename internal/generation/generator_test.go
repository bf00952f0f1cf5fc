package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/platform/openai"
)

type stubAI struct {
	json     string
	text     string
	err      error
	video    openai.VideoJob
	lastUser string
	schema   string
}

func (s *stubAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) ([]byte, error) {
	s.lastUser = user
	s.schema = schemaName
	return []byte(s.json), s.err
}

func (s *stubAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	s.lastUser = user
	return s.text, s.err
}

func (s *stubAI) StreamText(ctx context.Context, system, user string, onDelta func(string)) (string, error) {
	s.lastUser = user
	for _, part := range strings.SplitAfter(s.text, " ") {
		onDelta(part)
	}
	return s.text, s.err
}

func (s *stubAI) CreateVideo(ctx context.Context, prompt string) (openai.VideoJob, error) {
	return s.video, s.err
}

func (s *stubAI) GetVideo(ctx context.Context, id string) (openai.VideoJob, error) {
	return s.video, s.err
}

func (s *stubAI) VideoContentURL(id string) string {
	return "https://api.test/v1/videos/" + id + "/content"
}

func newTestGenerator(t *testing.T, ai openai.Client) Generator {
	t.Helper()
	g, err := New(logger.Nop(), ai)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestGenerateSectionDecodesDiagnosis(t *testing.T) {
	ai := &stubAI{json: `{"currentStage":"Stage 2","yourRole":"Do-er","constraints":["leads"],"actions":["post daily"]}`}
	g := newTestGenerator(t, ai)

	got, err := g.GenerateSection(context.Background(), playbooktest.Business(), playbook.SectionDiagnosis)
	if err != nil {
		t.Fatalf("GenerateSection: %v", err)
	}
	d, ok := got.(playbook.Diagnosis)
	if !ok {
		t.Fatalf("unexpected section type %T", got)
	}
	if d.CurrentStage != "Stage 2" || len(d.Actions) != 1 {
		t.Fatalf("unexpected diagnosis: %+v", d)
	}
	if ai.schema != "playbook_diagnosis" {
		t.Fatalf("unexpected schema name %q", ai.schema)
	}
	if !strings.Contains(ai.lastUser, "Boutique Fitness Studio") || !strings.Contains(ai.lastUser, "TASK:") {
		t.Fatalf("prompt missing business context or task: %s", ai.lastUser)
	}
}

func TestGenerateSectionRejectsSchemaViolation(t *testing.T) {
	ai := &stubAI{json: `{"currentStage":"Stage 2"}`}
	g := newTestGenerator(t, ai)

	_, err := g.GenerateSection(context.Background(), playbooktest.Business(), playbook.SectionDiagnosis)
	ge, ok := AsGenerationError(err)
	if !ok {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.HasPrefix(ge.Message, "Failed to generate valid JSON for the requested content: ") {
		t.Fatalf("unexpected message: %q", ge.Message)
	}
}

func TestGenerateSectionWrapsTransportError(t *testing.T) {
	cause := errors.New("503 upstream")
	g := newTestGenerator(t, &stubAI{err: cause})

	_, err := g.GenerateSection(context.Background(), playbooktest.Business(), playbook.SectionOffer1)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if err.Error() != "Failed to generate valid JSON for the requested content: 503 upstream" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestGenerateSectionRepairsTruncatedJSON(t *testing.T) {
	ai := &stubAI{json: "```json\n{\"steps\":[{\"title\":\"Upsell\",\"action\":\"Ask\",\"example\":\"Now\",\"script\":null}]\n```"}
	g := newTestGenerator(t, ai)

	got, err := g.GenerateSection(context.Background(), playbooktest.Business(), playbook.SectionProfitPath)
	if err != nil {
		t.Fatalf("GenerateSection: %v", err)
	}
	if p := got.(playbook.ProfitPath); len(p.Steps) != 1 || p.Steps[0].Script != "" {
		t.Fatalf("unexpected profit path: %+v", p)
	}
}

func TestBusinessContextVariesByStage(t *testing.T) {
	b := playbooktest.Business()
	b.BusinessStage = "new"
	b.FundingStatus = "bootstrapped"
	if got := businessContext(b); !strings.Contains(got, "bootstrapped") {
		t.Fatalf("bootstrapped context missing: %s", got)
	}
	b.FundingStatus = "funded"
	if got := businessContext(b); !strings.Contains(got, "has capital") {
		t.Fatalf("funded context missing: %s", got)
	}
	b.BusinessStage = "existing"
	if got := businessContext(b); !strings.Contains(got, "existing business") {
		t.Fatalf("existing context missing: %s", got)
	}
}

func TestSuggestFieldStripsQuotes(t *testing.T) {
	ai := &stubAI{text: "\"Mobile dog grooming\"\n"}
	g := newTestGenerator(t, ai)

	got, err := g.SuggestField(context.Background(), playbook.BusinessData{Location: "Leeds"}, "businessType")
	if err != nil {
		t.Fatalf("SuggestField: %v", err)
	}
	if got != "Mobile dog grooming" {
		t.Fatalf("unexpected suggestion %q", got)
	}
	if !strings.Contains(ai.lastUser, "Business Type or Idea") || !strings.Contains(ai.lastUser, "Leeds") {
		t.Fatalf("prompt missing label or context: %s", ai.lastUser)
	}
}

func TestChatPromptFormatsHistory(t *testing.T) {
	ai := &stubAI{text: "Sure thing"}
	g := newTestGenerator(t, ai)
	history := []playbook.ChatMessage{
		{Role: playbook.RoleModel, Content: "Welcome"},
		{Role: playbook.RoleUser, Content: "Lower the price"},
	}
	var deltas []string
	full, err := g.StreamChat(context.Background(), playbooktest.Business(), playbooktest.Complete(), history, func(d string) {
		deltas = append(deltas, d)
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if full != "Sure thing" || strings.Join(deltas, "") != full {
		t.Fatalf("unexpected stream result %q / %v", full, deltas)
	}
	if !strings.Contains(ai.lastUser, "AI: Welcome\n\nUSER: Lower the price") {
		t.Fatalf("history not formatted: %s", ai.lastUser)
	}
}

func TestPollVideo(t *testing.T) {
	ai := &stubAI{video: openai.VideoJob{ID: "vid_1", Status: "in_progress"}}
	g := newTestGenerator(t, ai)

	poll, err := g.PollVideo(context.Background(), "vid_1")
	if err != nil || poll.Done {
		t.Fatalf("expected pending poll, got %+v %v", poll, err)
	}

	ai.video.Status = "completed"
	poll, err = g.PollVideo(context.Background(), "vid_1")
	if err != nil || !poll.Done || !strings.HasSuffix(poll.DownloadLink, "/vid_1/content") {
		t.Fatalf("expected finished poll, got %+v %v", poll, err)
	}

	ai.video = openai.VideoJob{ID: "vid_1", Status: "failed", Error: "moderation"}
	if _, err := g.PollVideo(context.Background(), "vid_1"); err == nil || !strings.Contains(err.Error(), "moderation") {
		t.Fatalf("expected failure, got %v", err)
	}
}
