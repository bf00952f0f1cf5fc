package generation

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/platform/jsonx"
)

const consultantSystem = `You are Hormozi AI, a business consultant who applies Alex Hormozi's operating system:
Grand Slam Offers built on the Value Equation (dream outcome x perceived likelihood / time delay x effort),
the Core Four lead methods (warm outreach, content, cold outreach, paid ads), the Money Model levers
(attraction, upsell, downsell, continuity) aimed at 30-day gross profit >= 2x CAC + COGS with LTV:CAC of at
least 3:1, and the Scaling Roadmap with the Theory of Constraints (supply vs demand constrained).
Advice is practical, specific to the business, and customer-centric.`

// sectionTasks holds the task line appended to the business context for each stage.
var sectionTasks = map[playbook.SectionKind]string{
	playbook.SectionDiagnosis: "Diagnose the business with the Scaling Roadmap and Theory of Constraints. Decide " +
		"whether it is supply or demand constrained using the doubling-ad-spend test, name its roadmap stage and the " +
		"owner's role, and list the constraints and the top actions to reach the next stage.",
	playbook.SectionMoneyModelAnalysis: "Compare the current money model with a stronger one. Give metrics for both, " +
		"an LTV:CAC analysis targeting at least 3:1, and projected economics for one new customer under the new model.",
	playbook.SectionMoneyModelMechanisms: "Build a money model toolkit with one concrete tactic for each lever: " +
		"Attraction, Upsell, Downsell and Continuity. Explain the strategy, an example for this business, and " +
		"implementation notes.",
	playbook.SectionMoneyModel: "Design the money model funnel in 3-5 ordered steps using the four levers so that " +
		"the first 30 days of gross profit fund customer acquisition. Give it a title, core principle and summary.",
	playbook.SectionOffer1: "Create a Grand Slam Offer named with the MAGIC formula. The value stack has 5-8 items " +
		"and every item carries a downloadable asset. Keep each asset's content to a one-line placeholder; the full " +
		"text is written later.",
	playbook.SectionOffer2: "Create a second, different Grand Slam Offer for the same core problem from another " +
		"angle or avatar. 5-8 stack items, each with an asset whose content is a one-line placeholder, a bold " +
		"guarantee and roughly 10x value to price.",
	playbook.SectionDownsell: "Create a low-priced attraction offer that works as a downsell or tripwire. Explain " +
		"the rationale. 2-4 stack items, each with an asset whose content is a one-line placeholder.",
	playbook.SectionMarketingModel: "Write a 4-step lead plan following the Core Four in order: warm outreach, " +
		"content with a lead magnet, cold outreach, paid ads. Give a strategy, an example and a template where useful.",
	playbook.SectionSalesFunnel: "Design a simple sales funnel with 2-3 stages. For each stage give the goal, ad " +
		"copy, landing page elements, the sales process and the one metric that matters.",
	playbook.SectionProfitPath: "Lay out a profit path of immediate upsells offered right after the first sale. " +
		"Each step has a title, action, example and a short script when it helps.",
	playbook.SectionOperationsPlan: "Write an operations plan aimed at the primary constraint: the core principle, " +
		"high-leverage outcomes and activities, a bottleneck analysis and 1-2 roles to hire.",
	playbook.SectionKpiDashboard: "Build a business scorecard of the 5-7 most important KPIs with LTV:CAC at the " +
		"centre. Give each KPI a perspective, description, formula, how to measure it, an example and why it matters.",
}

var businessContextTmpl = template.Must(template.New("business").Option("missingkey=zero").Parse(`
Business situation:
{{- if .New }}
This is a new business idea started from scratch.
{{- if .Bootstrapped }}
Funding: bootstrapped. Favour sweat equity, low-cost acquisition and reaching positive cash flow fast.
{{- else }}
Funding: has capital. Favour deploying capital for speed, testing paid channels and building systems early.
{{- end }}
{{- else }}
This is an existing business looking to grow.
{{- end }}

Business data:
- Country: {{.B.Country}}
- Currency: {{.B.Currency}}
- Business Type: {{.B.BusinessType}}
- Location: {{.B.Location}}
- Monthly Revenue: {{.B.MonthlyRevenue}} {{.B.Currency}}
- Employees: {{.B.Employees}}
- Marketing Methods: {{.B.MarketingMethods}}
- Biggest Challenge: {{.B.BiggestChallenge}}
- Core Offer: {{.B.CoreOffer}}
- Target Client: {{.B.TargetClient}}
- Offer Timeline: {{.B.OfferTimeline}}
- Has Sales Team: {{.B.HasSalesTeam}}
- Monthly Ad Spend: {{.B.MonthlyAdSpend}} {{.B.Currency}}
- Profit Goal: {{.B.ProfitGoal}} {{.B.Currency}}
- Has Certifications: {{.B.HasCertifications}}
- Has Testimonials: {{.B.HasTestimonials}}
- Physical Capacity: {{.B.PhysicalCapacity}}
- Ancillary Products: {{.B.AncillaryProducts}}
- Perceived Max Price: {{.B.PerceivedMaxPrice}} {{.B.Currency}}
- Daily Time Commitment: {{.B.DailyTimeCommitment}} hours
`))

var assetTmpl = template.Must(template.New("asset").Option("missingkey=zero").Parse(`
A business is creating a downloadable asset for one of its offers. Write the complete, ready-to-use content of
the asset in simple Markdown. Do not summarise.

Business context:
- Business Type: {{.B.BusinessType}}
- Target Client: {{.B.TargetClient}}
- Core Offer: {{.B.CoreOffer}}

Asset:
- Name: "{{.Item.Asset.Name}}"
- Type: {{.Item.Asset.Type}}
- Problem it solves: "{{.Item.Problem}}"
- Part of the solution: "{{.Item.Solution}}"
`))

func render(t *template.Template, data any) string {
	var b bytes.Buffer
	_ = t.Execute(&b, data)
	return strings.TrimSpace(b.String())
}

func businessContext(b playbook.BusinessData) string {
	return render(businessContextTmpl, struct {
		B            playbook.BusinessData
		New          bool
		Bootstrapped bool
	}{B: b, New: b.IsNewBusiness(), Bootstrapped: b.IsBootstrapped()})
}

func sectionPrompt(b playbook.BusinessData, kind playbook.SectionKind) (string, error) {
	task, ok := sectionTasks[kind]
	if !ok {
		return "", fmt.Errorf("no task for section %q", kind)
	}
	return businessContext(b) + "\n\nTASK: " + task, nil
}

func assetPrompt(item playbook.OfferStackItem, b playbook.BusinessData) string {
	return render(assetTmpl, struct {
		B    playbook.BusinessData
		Item playbook.OfferStackItem
	}{B: b, Item: item})
}

func chatPrompt(b playbook.BusinessData, pb playbook.GeneratedPlaybook, history []playbook.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString("You already wrote a business plan for this user and are now refining it in a chat. ")
	sb.WriteString("Answer the latest message helpfully and concisely in simple Markdown.\n\n")
	sb.WriteString("Business data:\n```json\n")
	sb.WriteString(jsonx.MarshalIndent(b))
	sb.WriteString("\n```\n\nCurrent plan:\n```json\n")
	sb.WriteString(jsonx.MarshalIndent(pb))
	sb.WriteString("\n```\n\nCHAT HISTORY:\n")
	for i, m := range history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if m.Role == playbook.RoleUser {
			sb.WriteString("USER: ")
		} else {
			sb.WriteString("AI: ")
		}
		sb.WriteString(m.Content)
	}
	sb.WriteString("\n\nAI:")
	return sb.String()
}

func videoScriptPrompt(pb playbook.GeneratedPlaybook, b playbook.BusinessData) string {
	var sb strings.Builder
	sb.WriteString("Write a 60-90 second voice-over script for a business overview video. Open with a hook, ")
	sb.WriteString("summarise the main challenge from the diagnosis, introduce the primary offer, highlight two or ")
	sb.WriteString("three benefits from its stack, mention the guarantee and close with a call to action. ")
	sb.WriteString("Return only the script text.\n\n")
	sb.WriteString("Business data:\n")
	sb.WriteString(jsonx.MarshalIndent(b))
	sb.WriteString("\n\nDiagnosis:\n")
	sb.WriteString(jsonx.MarshalIndent(pb.Diagnosis))
	sb.WriteString("\n\nPrimary offer:\n")
	sb.WriteString(jsonx.MarshalIndent(pb.Offer1))
	return sb.String()
}

func autofillPrompt(description, url string) string {
	if strings.TrimSpace(url) == "" {
		url = "Not provided"
	}
	return "Fill out a business intake form from the description and optional URL below. Estimate sensibly " +
		"where information is missing and use an empty string when a field cannot be determined. Infer the " +
		"currency from the country when it is not stated. Use yes or no for yes/no fields. Decide whether the " +
		"business is new or existing from its language.\n\n" +
		"Business URL: " + url + "\n" +
		"Business description: " + jsonx.MarshalIndent(description)
}

func suggestionPrompt(partial playbook.BusinessData, field string) string {
	label := playbook.FieldLabel(field)
	ctx := partial.Fields(field)
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString("- " + k + ": " + ctx[k] + "\n")
	}
	return fmt.Sprintf("Suggest one short, creative value for the form field %q based on this business "+
		"information:\n%s\nReturn only the text of the suggestion, with no label and no quotation marks.", label, sb.String())
}
