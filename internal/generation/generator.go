// Package generation turns business data into playbook content through the model provider. Each
// method is one unit of work against the service; there is no caching and no retry at this layer.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/platform/jsonx"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
	"github.com/yungbote/playbook-backend/internal/platform/openai"
)

type Generator interface {
	GenerateSection(ctx context.Context, biz playbook.BusinessData, kind playbook.SectionKind) (playbook.Section, error)
	GenerateAssetContent(ctx context.Context, item playbook.OfferStackItem, biz playbook.BusinessData) (string, error)
	StreamChat(ctx context.Context, biz playbook.BusinessData, pb playbook.GeneratedPlaybook, history []playbook.ChatMessage, onDelta func(string)) (string, error)
	GenerateVideoScript(ctx context.Context, pb playbook.GeneratedPlaybook, biz playbook.BusinessData) (string, error)
	StartVideo(ctx context.Context, script string) (string, error)
	PollVideo(ctx context.Context, operationID string) (VideoPoll, error)
	Autofill(ctx context.Context, description, url string) (playbook.BusinessData, error)
	SuggestField(ctx context.Context, partial playbook.BusinessData, field string) (string, error)
}

// VideoPoll is one observation of a video render. DownloadLink is only meaningful once Done.
type VideoPoll struct {
	Done         bool
	DownloadLink string
}

type generator struct {
	log        *logger.Logger
	ai         openai.Client
	validators map[playbook.SectionKind]*jsonx.Validator
}

func New(log *logger.Logger, ai openai.Client) (Generator, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	g := &generator{
		log:        log.With("service", "Generator"),
		ai:         ai,
		validators: make(map[playbook.SectionKind]*jsonx.Validator, len(playbook.SectionOrder)),
	}
	for _, kind := range playbook.SectionOrder {
		_, schema, err := sectionSchema(kind)
		if err != nil {
			return nil, err
		}
		v, err := jsonx.NewValidator(schema)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", kind, err)
		}
		g.validators[kind] = v
	}
	return g, nil
}

func (g *generator) GenerateSection(ctx context.Context, biz playbook.BusinessData, kind playbook.SectionKind) (playbook.Section, error) {
	op := "generate_" + string(kind)
	name, schema, err := sectionSchema(kind)
	if err != nil {
		return nil, jsonFailure(op, err)
	}
	prompt, err := sectionPrompt(biz, kind)
	if err != nil {
		return nil, jsonFailure(op, err)
	}

	raw, err := g.ai.GenerateJSON(ctx, consultantSystem, prompt, name, schema)
	if err != nil {
		return nil, jsonFailure(op, err)
	}

	var generic any
	if err := jsonx.Parse(string(raw), &generic); err != nil {
		return nil, jsonFailure(op, err)
	}
	if v := g.validators[kind]; v != nil {
		if err := v.Validate(generic); err != nil {
			g.log.Warn("section failed schema validation", "section", kind, "error", err)
			return nil, jsonFailure(op, err)
		}
	}
	section, err := decodeSection(kind, string(raw))
	if err != nil {
		return nil, jsonFailure(op, err)
	}
	return section, nil
}

func (g *generator) GenerateAssetContent(ctx context.Context, item playbook.OfferStackItem, biz playbook.BusinessData) (string, error) {
	const op = "generate_asset_content"
	if item.Asset == nil {
		return "", contentFailure(op, errors.New("stack item has no asset"))
	}
	text, err := g.ai.GenerateText(ctx, consultantSystem, assetPrompt(item, biz))
	if err != nil {
		return "", contentFailure(op, err)
	}
	return text, nil
}

func (g *generator) StreamChat(ctx context.Context, biz playbook.BusinessData, pb playbook.GeneratedPlaybook, history []playbook.ChatMessage, onDelta func(string)) (string, error) {
	const op = "chat_stream"
	full, err := g.ai.StreamText(ctx, consultantSystem, chatPrompt(biz, pb, history), onDelta)
	if err != nil {
		return full, contentFailure(op, err)
	}
	return full, nil
}

func (g *generator) GenerateVideoScript(ctx context.Context, pb playbook.GeneratedPlaybook, biz playbook.BusinessData) (string, error) {
	const op = "generate_video_script"
	text, err := g.ai.GenerateText(ctx, "You write short, engaging scripts for business overview videos.", videoScriptPrompt(pb, biz))
	if err != nil {
		return "", contentFailure(op, err)
	}
	return strings.TrimSpace(text), nil
}

func (g *generator) StartVideo(ctx context.Context, script string) (string, error) {
	const op = "start_video"
	job, err := g.ai.CreateVideo(ctx, script)
	if err != nil {
		return "", contentFailure(op, err)
	}
	if job.ID == "" {
		return "", contentFailure(op, errors.New("video service returned no operation id"))
	}
	return job.ID, nil
}

func (g *generator) PollVideo(ctx context.Context, operationID string) (VideoPoll, error) {
	const op = "poll_video"
	job, err := g.ai.GetVideo(ctx, operationID)
	if err != nil {
		return VideoPoll{}, contentFailure(op, err)
	}
	if job.Failed() {
		msg := job.Error
		if msg == "" {
			msg = "video job " + job.Status
		}
		return VideoPoll{}, contentFailure(op, errors.New(msg))
	}
	if !job.Done() {
		return VideoPoll{}, nil
	}
	return VideoPoll{Done: true, DownloadLink: g.ai.VideoContentURL(job.ID)}, nil
}

func (g *generator) Autofill(ctx context.Context, description, url string) (playbook.BusinessData, error) {
	const op = "autofill_business_data"
	raw, err := g.ai.GenerateJSON(ctx, "You are a business analyst filling out an intake form.", autofillPrompt(description, url), "business_data", businessDataSchema())
	if err != nil {
		return playbook.BusinessData{}, jsonFailure(op, err)
	}
	var out playbook.BusinessData
	if err := jsonx.Parse(string(raw), &out); err != nil {
		return playbook.BusinessData{}, jsonFailure(op, err)
	}
	return out, nil
}

func (g *generator) SuggestField(ctx context.Context, partial playbook.BusinessData, field string) (string, error) {
	const op = "suggest_field"
	text, err := g.ai.GenerateText(ctx, "You help entrepreneurs brainstorm.", suggestionPrompt(partial, field))
	if err != nil {
		return "", contentFailure(op, err)
	}
	return trimQuotes(strings.TrimSpace(text)), nil
}

// trimQuotes drops one leading and one trailing double quote.
func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
