package export

import (
	"embed"
	"fmt"
	"strings"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/render"
)

//go:embed guides/*.md
var guideFS embed.FS

func guide(name string) string {
	b, err := guideFS.ReadFile("guides/" + name)
	if err != nil {
		return ""
	}
	return string(b)
}

func planSubtitle(biz playbook.BusinessData) string {
	return "A growth plan for your " + biz.BusinessType
}

// SectionDocument lays out a single-section export. pb must be complete.
func SectionDocument(kind Kind, pb playbook.GeneratedPlaybook, biz playbook.BusinessData) (render.Document, error) {
	if !pb.Complete() {
		return render.Document{}, playbook.ErrIncomplete
	}
	switch kind {
	case KindFull:
		return fullPlaybook(pb, biz), nil
	case KindConceptsGuide:
		return conceptsGuide(pb, biz), nil
	case KindMoneyModelsGuide:
		return render.NewDocument(kind.Title(), "A comprehensive guide").WithCover().Markdown(guide("money_models.md")).Document(), nil
	case KindOfferPresentation:
		return offerPresentation(*pb.Offer1, biz), nil
	case KindKpiDashboard:
		b := render.NewDocument(pb.KpiDashboard.Title, planSubtitle(biz))
		kpiDashboard(b, *pb.KpiDashboard)
		return b.Document(), nil
	case KindLandingPage:
		return landingPage(pb), nil
	case KindDownsellPamphlet:
		return offerFlyer(pb.Downsell.Offer), nil
	case KindTripwireFollowup:
		return followUpNote(pb, biz), nil
	case KindCfaModel:
		return moneyMakingPlan(pb, biz), nil
	}
	return render.Document{}, fmt.Errorf("unknown export kind %q", kind)
}

func fullPlaybook(pb playbook.GeneratedPlaybook, biz playbook.BusinessData) render.Document {
	b := render.NewDocument("Your Business Playbook", planSubtitle(biz)).WithCover()

	b.H1("Business Diagnosis")
	diagnosis(b, *pb.Diagnosis)

	b.PageBreak().H1("Money Model Analysis")
	moneyModelAnalysis(b, *pb.MoneyModelAnalysis)

	b.PageBreak().H1(pb.MoneyModelMechanisms.Title)
	mechanisms(b, *pb.MoneyModelMechanisms)

	b.PageBreak().H1(pb.MoneyModel.Title)
	moneyModel(b, *pb.MoneyModel)

	b.PageBreak().H1("Grand Slam Offer 1")
	offerDetails(b, *pb.Offer1)

	b.PageBreak().H1("Grand Slam Offer 2")
	offerDetails(b, *pb.Offer2)

	b.PageBreak().H1("Downsell 'Hello' Offer")
	b.P(pb.Downsell.Rationale)
	offerDetails(b, pb.Downsell.Offer)

	b.PageBreak().H1("Marketing Model")
	marketingModel(b, *pb.MarketingModel)

	b.PageBreak().H1(pb.SalesFunnel.Title)
	salesFunnel(b, *pb.SalesFunnel)

	b.PageBreak().H1("Profit Path")
	profitPath(b, *pb.ProfitPath)

	b.PageBreak().H1(pb.OperationsPlan.Title)
	operationsPlan(b, *pb.OperationsPlan)

	b.PageBreak().H1(pb.KpiDashboard.Title)
	kpiDashboard(b, *pb.KpiDashboard)
	return b.Document()
}

func diagnosis(b *render.Builder, d playbook.Diagnosis) {
	b.Field("Current stage", d.CurrentStage)
	b.Field("Your role", d.YourRole)
	b.H2("Constraints").Bullets(d.Constraints...)
	b.H2("Top actions").Numbered(d.Actions...)
}

func modelSnapshot(b *render.Builder, label string, m playbook.ModelSnapshot) {
	b.H2(label + ": " + m.Title)
	b.P(m.Description)
	for _, metric := range m.Metrics {
		b.Field(metric.Label, metric.Value)
	}
}

func moneyModelAnalysis(b *render.Builder, a playbook.MoneyModelAnalysis) {
	modelSnapshot(b, "Current model", a.OldModel)
	modelSnapshot(b, "New model", a.NewModel)
	b.H2("LTV:CAC analysis")
	b.Field("Automation level", a.LtvCacAnalysis.AutomationLevel)
	b.Field("Target ratio", a.LtvCacAnalysis.TargetRatio)
	b.P(a.LtvCacAnalysis.Explanation)
	b.H2("Projected economics")
	b.Field("Estimated CAC", a.ProjectedEconomics.EstimatedCAC)
	b.Field("Target LTV", a.ProjectedEconomics.TargetLTV)
	b.Field("Projected ratio", a.ProjectedEconomics.ProjectedRatio)
	b.Field("Immediate profit", a.ProjectedEconomics.ImmediateProfit)
	b.P(a.ProjectedEconomics.Explanation)
}

func mechanisms(b *render.Builder, m playbook.MoneyModelMechanisms) {
	b.Quote(m.CorePrinciple)
	for _, mech := range m.Mechanisms {
		b.H2(mech.MechanismType + ": " + mech.TacticName)
		b.P(mech.Strategy)
		b.Field("Example", mech.Example)
		b.Field("Implementation", mech.ImplementationNotes)
	}
}

func moneyModel(b *render.Builder, m playbook.MoneyModel) {
	b.Quote(m.CorePrinciple)
	for _, s := range m.Steps {
		b.H2(fmt.Sprintf("Step %d: %s", s.StepNumber, s.Title))
		b.Field("Offer", s.OfferName)
		b.Field("Price", s.Price)
		b.Field("Tactic", s.HormoziTactic)
		b.P(s.Rationale)
		b.P(s.Details)
	}
	b.H2("Summary").P(m.Summary)
}

func offerDetails(b *render.Builder, o playbook.GeneratedOffer) {
	b.H2(o.Name)
	b.Quote(o.Promise)
	b.H3("The value stack")
	for _, item := range o.Stack {
		line := item.Solution
		if item.Value != "" {
			line += " (" + item.Value + ")"
		}
		b.Field(item.Problem, line)
	}
	b.Note(o.StrategyBehindStack)
	b.Field("Total value", o.TotalValue)
	b.Field("Price", o.Price)
	b.Field("Guarantee", o.Guarantee)
}

func marketingModel(b *render.Builder, m playbook.MarketingModel) {
	for i, s := range m.Steps {
		b.H2(fmt.Sprintf("%d. %s", i+1, s.Method))
		b.P(s.Strategy)
		b.Field("Example", s.Example)
		if s.Template != "" {
			b.H3("Template").Quote(s.Template)
		}
	}
}

func salesFunnel(b *render.Builder, f playbook.SalesFunnel) {
	b.Quote(f.CorePrinciple)
	for _, st := range f.Stages {
		b.H2(st.StageName)
		b.Field("Goal", st.Goal)
		b.H3("Ad copy")
		b.Field("Headline", st.AdCopy.Headline)
		b.P(st.AdCopy.Body)
		b.Field("Call to action", st.AdCopy.CTA)
		b.H3("Landing page")
		b.Field("Headline", st.LandingPage.Headline)
		b.Bullets(st.LandingPage.Elements...)
		b.Field("Key focus", st.LandingPage.KeyFocus)
		b.H3("Sales process")
		for _, step := range st.SalesProcess {
			b.Field(step.Step, step.ScriptFocus)
		}
		b.Field("Key metric", st.KeyMetric)
	}
}

func profitPath(b *render.Builder, p playbook.ProfitPath) {
	for i, s := range p.Steps {
		b.H2(fmt.Sprintf("%d. %s", i+1, s.Title))
		b.Field("Action", s.Action)
		b.Field("Example", s.Example)
		if s.Script != "" {
			b.Quote(s.Script)
		}
	}
}

func operationsPlan(b *render.Builder, o playbook.OperationsPlan) {
	b.Quote(o.CorePrinciple)
	b.H2("Outcomes and activities")
	for _, oa := range o.OutcomesAndActivities {
		b.H3(oa.Outcome)
		b.Field("Activity", oa.Activity)
		b.Field("Time", oa.TimeAllocation)
		b.Field("Frequency", oa.Frequency)
	}
	b.H2("Bottleneck analysis").P(o.BottleneckAnalysis)
	b.H2("Roles to hire")
	for _, r := range o.ProposedRoles {
		b.H3(r.RoleTitle)
		b.Bullets(r.Responsibilities...)
		b.Field("Daily structure", r.DailyStructure)
		b.Field("Key metric", r.KeyMetric)
	}
}

func kpiDashboard(b *render.Builder, k playbook.KpiDashboard) {
	b.Quote(k.CorePrinciple)
	for _, kpi := range k.KPIs {
		b.H2(kpi.Name)
		b.Field("Perspective", kpi.Perspective)
		b.P(kpi.Description)
		b.Field("Formula", kpi.Formula)
		b.Field("How to measure", kpi.HowToMeasure)
		b.Field("Example", kpi.Example)
		b.Field("Why it matters", kpi.Importance)
	}
}

func conceptsGuide(pb playbook.GeneratedPlaybook, biz playbook.BusinessData) render.Document {
	b := render.NewDocument(KindConceptsGuide.Title(), "The ideas behind your plan").WithCover()
	b.Markdown(guide("concepts.md"))
	b.H2("Where your business is today")
	b.Field("Business", biz.BusinessType)
	b.Field("Stage", pb.Diagnosis.CurrentStage)
	b.Field("Your role", pb.Diagnosis.YourRole)
	if len(pb.Diagnosis.Constraints) > 0 {
		b.Field("Main constraint", pb.Diagnosis.Constraints[0])
	}
	return b.Document()
}

// offerPresentation lays the primary offer out as slides, one idea per page.
func offerPresentation(o playbook.GeneratedOffer, biz playbook.BusinessData) render.Document {
	b := render.NewDocument(o.Name, o.Promise).WithCover()
	b.H1("Who this is for").P(biz.TargetClient)
	for _, item := range o.Stack {
		b.PageBreak()
		b.H1(item.Problem)
		b.P(item.Solution)
		if item.Asset != nil {
			b.Field("You get", item.Asset.Name)
		}
		b.Field("Value", item.Value)
	}
	b.PageBreak().H1("Everything you get")
	var lines []string
	for _, item := range o.Stack {
		lines = append(lines, item.Solution+" ("+item.Value+")")
	}
	b.Bullets(lines...)
	b.Field("Total value", o.TotalValue)
	b.Field("Your price", o.Price)
	b.PageBreak().H1("Our guarantee").Quote(o.Guarantee)
	return b.Document()
}

func landingPage(pb playbook.GeneratedPlaybook) render.Document {
	o := *pb.Offer1
	b := render.NewDocument(o.Name, o.Promise).WithCover()
	if len(pb.SalesFunnel.Stages) > 0 {
		lp := pb.SalesFunnel.Stages[0].LandingPage
		b.H1(lp.Headline)
		b.Bullets(lp.Elements...)
		b.Note(lp.KeyFocus)
	}
	b.H2("Here is everything you get")
	for _, item := range o.Stack {
		b.Field(item.Solution, item.Value)
	}
	b.Field("Total value", o.TotalValue)
	b.Field("Today", o.Price)
	b.H2("Guarantee").Quote(o.Guarantee)
	if len(pb.SalesFunnel.Stages) > 0 {
		b.H2(pb.SalesFunnel.Stages[0].AdCopy.CTA)
	}
	return b.Document()
}

func offerFlyer(o playbook.GeneratedOffer) render.Document {
	b := render.NewDocument(o.Name, o.Promise).WithCover()
	b.H2("What you get")
	for _, item := range o.Stack {
		b.Field(item.Solution, item.Value)
	}
	b.Field("Price", o.Price)
	b.Quote(o.Guarantee)
	return b.Document()
}

func followUpNote(pb playbook.GeneratedPlaybook, biz playbook.BusinessData) render.Document {
	b := render.NewDocument("Thank You For Joining "+pb.Downsell.Offer.Name, biz.BusinessType)
	b.P("Thanks for getting started with us. Here is what most people in your position do next.")
	for _, s := range pb.ProfitPath.Steps {
		b.H2(s.Title)
		b.P(s.Example)
		if s.Script != "" {
			b.Quote(s.Script)
		}
	}
	b.H2("Ready for the next step?")
	b.Field(pb.Offer1.Name, pb.Offer1.Promise)
	return b.Document()
}

func moneyMakingPlan(pb playbook.GeneratedPlaybook, biz playbook.BusinessData) render.Document {
	b := render.NewDocument(KindCfaModel.Title(), planSubtitle(biz)).WithCover()
	b.H1(pb.MoneyModel.Title)
	moneyModel(b, *pb.MoneyModel)
	b.PageBreak().H1("The numbers")
	moneyModelAnalysis(b, *pb.MoneyModelAnalysis)
	b.PageBreak().H1(pb.MoneyModelMechanisms.Title)
	mechanisms(b, *pb.MoneyModelMechanisms)
	return b.Document()
}

// AssetDocument lays out one asset's content.
func AssetDocument(item playbook.OfferStackItem) render.Document {
	if item.Asset == nil {
		return render.Document{}
	}
	b := render.NewDocument(item.Asset.Name, assetSubtitle(item.Asset.Type))
	b.Markdown(item.Asset.Content)
	return b.Document()
}

func assetSubtitle(t playbook.AssetType) string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// BundleDocument lays out every asset of an offer, one per page.
func BundleDocument(o playbook.GeneratedOffer) render.Document {
	b := render.NewDocument(o.Name, "Asset bundle").WithCover()
	first := true
	for _, item := range o.Stack {
		if item.Asset == nil {
			continue
		}
		if !first {
			b.PageBreak()
		}
		first = false
		b.H1(item.Asset.Name)
		b.Field("Type", assetSubtitle(item.Asset.Type))
		b.Field("Solves", item.Problem)
		b.Rule()
		b.Markdown(item.Asset.Content)
	}
	return b.Document()
}

// StartGuide introduces the kit and lists its contents from the manifest.
func StartGuide(m Manifest, biz playbook.BusinessData) render.Document {
	b := render.NewDocument("Start Here", "Your business growth kit for your "+biz.BusinessType).WithCover()
	b.Markdown(guide("start_here.md"))
	b.H2("What is inside")
	for _, c := range m.Cards {
		var labels []string
		for _, e := range c.Entries {
			if e.Type != DocStartGuide {
				labels = append(labels, e.Label+": "+e.Path)
			}
		}
		if len(labels) > 0 {
			b.H3(strings.TrimSpace(stripIcon(c.Title))).Bullets(labels...)
		}
	}
	for _, g := range m.Offers {
		b.H3(g.Title + ": " + g.Name).Field("Folder", g.Folder)
	}
	return b.Document()
}

// stripIcon drops a leading emoji and its space from a card title.
func stripIcon(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 && s[0] >= 0x80 {
		return s[i+1:]
	}
	return s
}
