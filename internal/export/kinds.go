// Package export turns a finished playbook into downloadable documents: single-section PDFs,
// asset PDFs, per-offer asset bundles, the full kit ZIP and its offline index page. One
// Coordinator runs at most one export at a time.
package export

import (
	"strings"
)

// Kind names a single-document export.
type Kind string

const (
	KindFull              Kind = "full"
	KindConceptsGuide     Kind = "concepts-guide"
	KindMoneyModelsGuide  Kind = "money-models-guide"
	KindOfferPresentation Kind = "offer-presentation"
	KindKpiDashboard      Kind = "kpi-dashboard"
	KindLandingPage       Kind = "landing-page"
	KindDownsellPamphlet  Kind = "downsell-pamphlet"
	KindTripwireFollowup  Kind = "tripwire-followup"
	KindCfaModel          Kind = "cfa-model"
)

var Kinds = []Kind{
	KindFull,
	KindConceptsGuide,
	KindMoneyModelsGuide,
	KindOfferPresentation,
	KindKpiDashboard,
	KindLandingPage,
	KindDownsellPamphlet,
	KindTripwireFollowup,
	KindCfaModel,
}

var kindTitles = map[Kind]string{
	KindFull:              "Full Business Playbook",
	KindConceptsGuide:     "Business Concepts Guide",
	KindMoneyModelsGuide:  "Client Financed Acquisition and Money Models",
	KindOfferPresentation: "Offer Presentation",
	KindKpiDashboard:      "Business Scorecard (KPIs)",
	KindLandingPage:       "High-Converting Landing Page",
	KindDownsellPamphlet:  "Simple Offer Flyer",
	KindTripwireFollowup:  "Customer Follow-Up Note",
	KindCfaModel:          "Your Money Making Plan",
}

func (k Kind) Valid() bool {
	_, ok := kindTitles[k]
	return ok
}

func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return string(k)
}

// Filename is the download name of a single-section export.
func (k Kind) Filename() string {
	return "Hormozi_AI_" + strings.ReplaceAll(string(k), " ", "_") + ".pdf"
}

const (
	KitFilename       = "Hormozi_AI_Business_Plan.zip"
	IndexFilename     = "index.html"
	assetFallbackName = "Hormozi_AI_Asset"
)

// AssetFilename is the download name of a single asset PDF.
func AssetFilename(name string) string {
	if name == "" {
		return assetFallbackName + ".pdf"
	}
	return strings.ReplaceAll(name, " ", "_") + ".pdf"
}

// BundleFilename is the download name of an offer's asset bundle.
func BundleFilename(offerName string) string {
	return "Hormozi_AI_Assets_" + strings.ReplaceAll(offerName, " ", "_") + ".pdf"
}

var unsafeRunes = strings.NewReplacer(
	`\`, "", "/", "", ":", "", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "",
)

// Sanitize makes name safe as a path segment: filesystem-reserved characters are removed and
// spaces become underscores.
func Sanitize(name string) string {
	return strings.ReplaceAll(unsafeRunes.Replace(name), " ", "_")
}
