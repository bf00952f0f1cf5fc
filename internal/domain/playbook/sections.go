package playbook

type Diagnosis struct {
	CurrentStage string   `json:"currentStage"`
	YourRole     string   `json:"yourRole"`
	Constraints  []string `json:"constraints"`
	Actions      []string `json:"actions"`
}

type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ModelSnapshot struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Metrics     []Metric `json:"metrics"`
}

type LtvCacAnalysis struct {
	AutomationLevel string `json:"automationLevel"`
	TargetRatio     string `json:"targetRatio"`
	Explanation     string `json:"explanation"`
}

type ProjectedEconomics struct {
	EstimatedCAC    string `json:"estimatedCAC"`
	TargetLTV       string `json:"targetLTV"`
	ProjectedRatio  string `json:"projectedRatio"`
	ImmediateProfit string `json:"immediateProfit"`
	Explanation     string `json:"explanation"`
}

type MoneyModelAnalysis struct {
	OldModel           ModelSnapshot      `json:"oldModel"`
	NewModel           ModelSnapshot      `json:"newModel"`
	LtvCacAnalysis     LtvCacAnalysis     `json:"ltvCacAnalysis"`
	ProjectedEconomics ProjectedEconomics `json:"projectedEconomics"`
}

type Mechanism struct {
	MechanismType       string `json:"mechanismType"`
	TacticName          string `json:"tacticName"`
	Strategy            string `json:"strategy"`
	Example             string `json:"example"`
	ImplementationNotes string `json:"implementationNotes"`
}

type MoneyModelMechanisms struct {
	Title         string      `json:"title"`
	CorePrinciple string      `json:"corePrinciple"`
	Mechanisms    []Mechanism `json:"mechanisms"`
}

type MoneyModelStep struct {
	StepNumber    int    `json:"stepNumber"`
	Title         string `json:"title"`
	OfferName     string `json:"offerName"`
	Price         string `json:"price"`
	Rationale     string `json:"rationale"`
	HormoziTactic string `json:"hormoziTactic"`
	Details       string `json:"details"`
}

type MoneyModel struct {
	Title         string           `json:"title"`
	CorePrinciple string           `json:"corePrinciple"`
	Steps         []MoneyModelStep `json:"steps"`
	Summary       string           `json:"summary"`
}

type MarketingStep struct {
	Method   string `json:"method"`
	Strategy string `json:"strategy"`
	Example  string `json:"example"`
	Template string `json:"template,omitempty"`
}

type MarketingModel struct {
	Steps []MarketingStep `json:"steps"`
}

type AdCopy struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
	CTA      string `json:"cta"`
}

type LandingPage struct {
	Headline string   `json:"headline"`
	Elements []string `json:"elements"`
	KeyFocus string   `json:"keyFocus"`
}

type SalesStep struct {
	Step        string `json:"step"`
	ScriptFocus string `json:"scriptFocus"`
}

type FunnelStage struct {
	StageName    string      `json:"stageName"`
	Goal         string      `json:"goal"`
	AdCopy       AdCopy      `json:"adCopy"`
	LandingPage  LandingPage `json:"landingPage"`
	SalesProcess []SalesStep `json:"salesProcess"`
	KeyMetric    string      `json:"keyMetric"`
}

type SalesFunnel struct {
	Title         string        `json:"title"`
	CorePrinciple string        `json:"corePrinciple"`
	Stages        []FunnelStage `json:"stages"`
}

type ProfitStep struct {
	Title   string `json:"title"`
	Action  string `json:"action"`
	Example string `json:"example"`
	Script  string `json:"script,omitempty"`
}

type ProfitPath struct {
	Steps []ProfitStep `json:"steps"`
}

type OutcomeActivity struct {
	Outcome        string `json:"outcome"`
	Activity       string `json:"activity"`
	TimeAllocation string `json:"timeAllocation"`
	Frequency      string `json:"frequency"`
}

type ProposedRole struct {
	RoleTitle        string   `json:"roleTitle"`
	Responsibilities []string `json:"responsibilities"`
	DailyStructure   string   `json:"dailyStructure"`
	KeyMetric        string   `json:"keyMetric"`
}

type OperationsPlan struct {
	Title                 string            `json:"title"`
	CorePrinciple         string            `json:"corePrinciple"`
	OutcomesAndActivities []OutcomeActivity `json:"outcomesAndActivities"`
	BottleneckAnalysis    string            `json:"bottleneckAnalysis"`
	ProposedRoles         []ProposedRole    `json:"proposedRoles"`
}

type KPI struct {
	Name         string `json:"name"`
	Perspective  string `json:"perspective"`
	Description  string `json:"description"`
	Formula      string `json:"formula"`
	HowToMeasure string `json:"howToMeasure"`
	Example      string `json:"example"`
	Importance   string `json:"importance"`
}

type KpiDashboard struct {
	Title         string `json:"title"`
	CorePrinciple string `json:"corePrinciple"`
	KPIs          []KPI  `json:"kpis"`
}
