package export

// Phase is the coordinator's current activity.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseRenderingSection Phase = "rendering_section"
	PhaseRenderingAsset   Phase = "rendering_asset"
	PhaseRenderingBundle  Phase = "rendering_bundle"
	PhaseZipping          Phase = "zipping"
)

// State is a snapshot of the export slot. Section, Asset and Offer name the subject of the
// running phase; Progress runs 0..100 and never decreases within one export.
type State struct {
	Phase    Phase   `json:"phase"`
	Section  Kind    `json:"section,omitempty"`
	Asset    string  `json:"asset,omitempty"`
	Offer    string  `json:"offer,omitempty"`
	Progress float64 `json:"progress"`
}

func (s State) Busy() bool {
	return s.Phase != "" && s.Phase != PhaseIdle
}

func idle() State { return State{Phase: PhaseIdle} }
