package playbook_build

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/platform/logger"
)

const playbookBuildPipelineEnv = "PLAYBOOK_BUILD_PIPELINE_YAML"

//go:embed playbook_build.yaml
var playbookBuildSpecFS embed.FS

// Stage is one generation step: the section it produces and the label shown while it runs.
type Stage struct {
	Kind  playbook.SectionKind
	Label string
}

const defaultSecondsPerStage = 8

// fallback stage table used when YAML is missing or invalid
var fallbackStages = []Stage{
	{playbook.SectionDiagnosis, "Analyzing Your Business..."},
	{playbook.SectionMoneyModelAnalysis, "Building Your Money Plan..."},
	{playbook.SectionMoneyModelMechanisms, "Creating Your Money Toolkit..."},
	{playbook.SectionMoneyModel, "Designing Your Money Funnel..."},
	{playbook.SectionOffer1, "Crafting Your Best Offers..."},
	{playbook.SectionOffer2, "Creating a Second Offer..."},
	{playbook.SectionDownsell, "Making a 'Hello' Offer..."},
	{playbook.SectionMarketingModel, "Finding Your Customer Path..."},
	{playbook.SectionSalesFunnel, "Building Your Sales Funnel..."},
	{playbook.SectionProfitPath, "Designing Your Profit Steps..."},
	{playbook.SectionOperationsPlan, "Planning Your Daily Actions..."},
	{playbook.SectionKpiDashboard, "Setting Up Your Scorecard..."},
}

type yamlPipelineSpec struct {
	Pipeline               string          `yaml:"pipeline"`
	Version                int             `yaml:"version"`
	AverageSecondsPerStage int             `yaml:"average_seconds_per_stage"`
	Stages                 []yamlStageSpec `yaml:"stages"`
}

type yamlStageSpec struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

type pipelineRuntime struct {
	Stages          []Stage
	SecondsPerStage int
}

var runtimeOnce sync.Once
var runtimeCache *pipelineRuntime
var runtimeErr error

func currentPipelineRuntime(log *logger.Logger) *pipelineRuntime {
	runtimeOnce.Do(func() {
		runtimeCache, runtimeErr = loadPipelineRuntime(readPlaybookBuildSpec)
	})
	if runtimeErr != nil {
		if log != nil {
			log.Warn("playbook_build: pipeline spec load failed; using fallback", "error", runtimeErr)
		}
		return nil
	}
	return runtimeCache
}

// Stages returns the stage table in execution order.
func Stages(log *logger.Logger) []Stage {
	if rt := currentPipelineRuntime(log); rt != nil {
		return append([]Stage(nil), rt.Stages...)
	}
	return append([]Stage(nil), fallbackStages...)
}

// AverageStageDuration is the per-stage estimate the ETA is computed from.
func AverageStageDuration(log *logger.Logger) time.Duration {
	if rt := currentPipelineRuntime(log); rt != nil && rt.SecondsPerStage > 0 {
		return time.Duration(rt.SecondsPerStage) * time.Second
	}
	return defaultSecondsPerStage * time.Second
}

func loadPipelineRuntime(read func() ([]byte, error)) (*pipelineRuntime, error) {
	data, err := read()
	if err != nil {
		return nil, err
	}

	var spec yamlPipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if err := validatePipelineSpec(&spec); err != nil {
		return nil, err
	}

	stages := make([]Stage, 0, len(spec.Stages))
	for _, s := range spec.Stages {
		stages = append(stages, Stage{
			Kind:  playbook.SectionKind(strings.TrimSpace(s.Key)),
			Label: strings.TrimSpace(s.Label),
		})
	}
	return &pipelineRuntime{
		Stages:          stages,
		SecondsPerStage: spec.AverageSecondsPerStage,
	}, nil
}

func readPlaybookBuildSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(playbookBuildPipelineEnv)); path != "" {
		return os.ReadFile(path)
	}
	return playbookBuildSpecFS.ReadFile("playbook_build.yaml")
}

// validatePipelineSpec accepts only the twelve known sections, each once, in playbook order. The
// stage file may relabel stages but never reorder, drop or add them.
func validatePipelineSpec(spec *yamlPipelineSpec) error {
	if spec == nil {
		return errors.New("missing spec")
	}
	if strings.TrimSpace(spec.Pipeline) != "playbook_build" {
		return fmt.Errorf("unexpected pipeline: %s", spec.Pipeline)
	}
	if spec.AverageSecondsPerStage < 0 {
		return fmt.Errorf("average_seconds_per_stage must not be negative")
	}
	if len(spec.Stages) != len(playbook.SectionOrder) {
		return fmt.Errorf("expected %d stages, got %d", len(playbook.SectionOrder), len(spec.Stages))
	}
	for i, stage := range spec.Stages {
		key := strings.TrimSpace(stage.Key)
		if key == "" {
			return fmt.Errorf("stage %d: key is required", i)
		}
		if want := playbook.SectionOrder[i]; playbook.SectionKind(key) != want {
			return fmt.Errorf("stage %d: expected %s, got %s", i, want, key)
		}
		if strings.TrimSpace(stage.Label) == "" {
			return fmt.Errorf("stage %s: label is required", key)
		}
	}
	return nil
}
