// Package generationtest provides an in-memory Generator for tests.
package generationtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
	"github.com/yungbote/playbook-backend/internal/generation"
)

// Fake answers from the playbooktest fixtures. Hooks override individual calls; counters record
// how often each method was used.
type Fake struct {
	mu sync.Mutex

	SectionHook func(kind playbook.SectionKind) (playbook.Section, error)
	AssetHook   func(item playbook.OfferStackItem) (string, error)
	ChatDeltas  []string
	ChatErr     error
	ChatHook    func(ctx context.Context, onDelta func(string)) (string, error)
	VideoPolls  []generation.VideoPoll
	VideoErr    error

	Sections  []playbook.SectionKind
	AssetRuns int
	PollRuns  int
}

var _ generation.Generator = (*Fake)(nil)

func (f *Fake) GenerateSection(ctx context.Context, biz playbook.BusinessData, kind playbook.SectionKind) (playbook.Section, error) {
	f.mu.Lock()
	f.Sections = append(f.Sections, kind)
	hook := f.SectionHook
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hook != nil {
		return hook(kind)
	}
	return FixtureSection(kind), nil
}

// FixtureSection returns the fixture playbook's value for kind.
func FixtureSection(kind playbook.SectionKind) playbook.Section {
	pb := playbooktest.Complete()
	switch kind {
	case playbook.SectionDiagnosis:
		return *pb.Diagnosis
	case playbook.SectionMoneyModelAnalysis:
		return *pb.MoneyModelAnalysis
	case playbook.SectionMoneyModelMechanisms:
		return *pb.MoneyModelMechanisms
	case playbook.SectionMoneyModel:
		return *pb.MoneyModel
	case playbook.SectionOffer1:
		return *pb.Offer1
	case playbook.SectionOffer2:
		return *pb.Offer2
	case playbook.SectionDownsell:
		return *pb.Downsell
	case playbook.SectionMarketingModel:
		return *pb.MarketingModel
	case playbook.SectionSalesFunnel:
		return *pb.SalesFunnel
	case playbook.SectionProfitPath:
		return *pb.ProfitPath
	case playbook.SectionOperationsPlan:
		return *pb.OperationsPlan
	case playbook.SectionKpiDashboard:
		return *pb.KpiDashboard
	}
	return nil
}

func (f *Fake) GenerateAssetContent(ctx context.Context, item playbook.OfferStackItem, biz playbook.BusinessData) (string, error) {
	f.mu.Lock()
	f.AssetRuns++
	hook := f.AssetHook
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if hook != nil {
		return hook(item)
	}
	name := "asset"
	if item.Asset != nil {
		name = item.Asset.Name
	}
	return playbooktest.MaterializedContent(name), nil
}

func (f *Fake) AssetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AssetRuns
}

func (f *Fake) SectionCalls() []playbook.SectionKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]playbook.SectionKind(nil), f.Sections...)
}

func (f *Fake) StreamChat(ctx context.Context, biz playbook.BusinessData, pb playbook.GeneratedPlaybook, history []playbook.ChatMessage, onDelta func(string)) (string, error) {
	if f.ChatHook != nil {
		return f.ChatHook(ctx, onDelta)
	}
	var sb strings.Builder
	for _, d := range f.ChatDeltas {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		sb.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
	}
	if f.ChatErr != nil {
		return sb.String(), f.ChatErr
	}
	return sb.String(), nil
}

func (f *Fake) GenerateVideoScript(ctx context.Context, pb playbook.GeneratedPlaybook, biz playbook.BusinessData) (string, error) {
	if f.VideoErr != nil {
		return "", f.VideoErr
	}
	return "Your business, transformed.", nil
}

func (f *Fake) StartVideo(ctx context.Context, script string) (string, error) {
	if strings.TrimSpace(script) == "" {
		return "", errors.New("empty script")
	}
	return "video_op_1", nil
}

// PollVideo walks VideoPolls in order and repeats the last entry once exhausted.
func (f *Fake) PollVideo(ctx context.Context, operationID string) (generation.VideoPoll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PollRuns++
	if len(f.VideoPolls) == 0 {
		return generation.VideoPoll{Done: true, DownloadLink: "https://example.test/video.mp4"}, nil
	}
	i := f.PollRuns - 1
	if i >= len(f.VideoPolls) {
		i = len(f.VideoPolls) - 1
	}
	return f.VideoPolls[i], nil
}

func (f *Fake) Autofill(ctx context.Context, description, url string) (playbook.BusinessData, error) {
	b := playbooktest.Business()
	b.BiggestChallenge = description
	return b, nil
}

func (f *Fake) SuggestField(ctx context.Context, partial playbook.BusinessData, field string) (string, error) {
	return "Suggested " + playbook.FieldLabel(field), nil
}
