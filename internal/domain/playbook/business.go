package playbook

import (
	"errors"
	"strings"
)

// BusinessData is the intake snapshot. It is copied by value into every generation call and never
// mutated after submission.
type BusinessData struct {
	Country             string `json:"country"`
	Currency            string `json:"currency"`
	BusinessType        string `json:"businessType"`
	Location            string `json:"location"`
	MonthlyRevenue      string `json:"monthlyRevenue"`
	Employees           string `json:"employees"`
	MarketingMethods    string `json:"marketingMethods"`
	BiggestChallenge    string `json:"biggestChallenge"`
	CoreOffer           string `json:"coreOffer"`
	TargetClient        string `json:"targetClient"`
	OfferTimeline       string `json:"offerTimeline"`
	HasSalesTeam        string `json:"hasSalesTeam"`
	MonthlyAdSpend      string `json:"monthlyAdSpend"`
	ProfitGoal          string `json:"profitGoal"`
	HasCertifications   string `json:"hasCertifications"`
	HasTestimonials     string `json:"hasTestimonials"`
	PhysicalCapacity    string `json:"physicalCapacity"`
	AncillaryProducts   string `json:"ancillaryProducts"`
	PerceivedMaxPrice   string `json:"perceivedMaxPrice"`
	DailyTimeCommitment string `json:"dailyTimeCommitment"`
	BusinessStage       string `json:"businessStage"`
	FundingStatus       string `json:"fundingStatus"`
}

var ErrMissingBusinessType = errors.New("businessType is required")

func (b BusinessData) Validate() error {
	if strings.TrimSpace(b.BusinessType) == "" {
		return ErrMissingBusinessType
	}
	return nil
}

// IsZero reports whether no business context was ever supplied.
func (b BusinessData) IsZero() bool {
	return b == BusinessData{}
}

// IsNewBusiness is true for a business that is still an idea.
func (b BusinessData) IsNewBusiness() bool {
	return strings.EqualFold(strings.TrimSpace(b.BusinessStage), "new")
}

// IsBootstrapped is true when a new business has no outside capital.
func (b BusinessData) IsBootstrapped() bool {
	return strings.EqualFold(strings.TrimSpace(b.FundingStatus), "bootstrapped")
}

// FieldLabels are the form labels shown next to the fields that support suggestions.
var FieldLabels = map[string]string{
	"businessType":      "Business Type or Idea",
	"biggestChallenge":  "Biggest Challenge or Question",
	"coreOffer":         "Main Offer & Price (or idea)",
	"targetClient":      "Your Ideal Customer",
	"marketingMethods":  "Current or Planned Marketing",
	"ancillaryProducts": "Other Items for Sale?",
}

// FieldLabel returns the display label for a form field, or the field name itself.
func FieldLabel(field string) string {
	if l, ok := FieldLabels[field]; ok {
		return l
	}
	return field
}

// Fields returns the non-empty fields keyed by their JSON names, skipping exclude.
func (b BusinessData) Fields(exclude string) map[string]string {
	all := map[string]string{
		"country":             b.Country,
		"currency":            b.Currency,
		"businessType":        b.BusinessType,
		"location":            b.Location,
		"monthlyRevenue":      b.MonthlyRevenue,
		"employees":           b.Employees,
		"marketingMethods":    b.MarketingMethods,
		"biggestChallenge":    b.BiggestChallenge,
		"coreOffer":           b.CoreOffer,
		"targetClient":        b.TargetClient,
		"offerTimeline":       b.OfferTimeline,
		"hasSalesTeam":        b.HasSalesTeam,
		"monthlyAdSpend":      b.MonthlyAdSpend,
		"profitGoal":          b.ProfitGoal,
		"hasCertifications":   b.HasCertifications,
		"hasTestimonials":     b.HasTestimonials,
		"physicalCapacity":    b.PhysicalCapacity,
		"ancillaryProducts":   b.AncillaryProducts,
		"perceivedMaxPrice":   b.PerceivedMaxPrice,
		"dailyTimeCommitment": b.DailyTimeCommitment,
		"businessStage":       b.BusinessStage,
		"fundingStatus":       b.FundingStatus,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if k == exclude || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns b with every empty field filled from other.
func (b BusinessData) Merge(other BusinessData) BusinessData {
	pick := func(cur, alt string) string {
		if strings.TrimSpace(cur) != "" {
			return cur
		}
		return alt
	}
	b.Country = pick(b.Country, other.Country)
	b.Currency = pick(b.Currency, other.Currency)
	b.BusinessType = pick(b.BusinessType, other.BusinessType)
	b.Location = pick(b.Location, other.Location)
	b.MonthlyRevenue = pick(b.MonthlyRevenue, other.MonthlyRevenue)
	b.Employees = pick(b.Employees, other.Employees)
	b.MarketingMethods = pick(b.MarketingMethods, other.MarketingMethods)
	b.BiggestChallenge = pick(b.BiggestChallenge, other.BiggestChallenge)
	b.CoreOffer = pick(b.CoreOffer, other.CoreOffer)
	b.TargetClient = pick(b.TargetClient, other.TargetClient)
	b.OfferTimeline = pick(b.OfferTimeline, other.OfferTimeline)
	b.HasSalesTeam = pick(b.HasSalesTeam, other.HasSalesTeam)
	b.MonthlyAdSpend = pick(b.MonthlyAdSpend, other.MonthlyAdSpend)
	b.ProfitGoal = pick(b.ProfitGoal, other.ProfitGoal)
	b.HasCertifications = pick(b.HasCertifications, other.HasCertifications)
	b.HasTestimonials = pick(b.HasTestimonials, other.HasTestimonials)
	b.PhysicalCapacity = pick(b.PhysicalCapacity, other.PhysicalCapacity)
	b.AncillaryProducts = pick(b.AncillaryProducts, other.AncillaryProducts)
	b.PerceivedMaxPrice = pick(b.PerceivedMaxPrice, other.PerceivedMaxPrice)
	b.DailyTimeCommitment = pick(b.DailyTimeCommitment, other.DailyTimeCommitment)
	b.BusinessStage = pick(b.BusinessStage, other.BusinessStage)
	b.FundingStatus = pick(b.FundingStatus, other.FundingStatus)
	return b
}
