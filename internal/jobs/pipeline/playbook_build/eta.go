package playbook_build

import (
	"fmt"
	"time"
)

// Estimator turns elapsed wall time into a rough countdown for the loading view.
type Estimator struct {
	Stages   int
	PerStage time.Duration
}

func NewEstimator(stages int, perStage time.Duration) Estimator {
	if stages <= 0 {
		stages = len(fallbackStages)
	}
	if perStage <= 0 {
		perStage = defaultSecondsPerStage * time.Second
	}
	return Estimator{Stages: stages, PerStage: perStage}
}

// EstimateRemaining is never negative and counts in whole seconds.
func (e Estimator) EstimateRemaining(elapsed time.Duration) time.Duration {
	total := time.Duration(e.Stages) * e.PerStage
	left := total - elapsed.Truncate(time.Second)
	if left < 0 {
		return 0
	}
	return left.Truncate(time.Second)
}

func (e Estimator) RemainingText(progress int, elapsed time.Duration) string {
	left := e.EstimateRemaining(elapsed)
	switch {
	case progress < 5:
		return "Estimating time..."
	case left > 0 && progress < 100:
		secs := int(left / time.Second)
		minutes, seconds := secs/60, secs%60
		if minutes > 0 {
			return fmt.Sprintf("About %dm %02ds remaining", minutes, seconds)
		}
		return fmt.Sprintf("About %02ds remaining", seconds)
	case progress < 100:
		return "Finishing up..."
	}
	return ""
}
