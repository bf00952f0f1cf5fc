// Package playbooktest builds playbook values for tests in other packages.
package playbooktest

import (
	"fmt"
	"strings"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
)

func Business() playbook.BusinessData {
	return playbook.BusinessData{
		Country:          "United States",
		Currency:         "USD",
		BusinessType:     "Boutique Fitness Studio",
		Location:         "Austin, TX",
		MonthlyRevenue:   "25000",
		Employees:        "4",
		MarketingMethods: "Instagram, referrals",
		BiggestChallenge: "Members churn after three months",
		CoreOffer:        "Unlimited classes for $149/month",
		TargetClient:     "Busy professionals aged 28-45",
		OfferTimeline:    "monthly",
		HasSalesTeam:     "no",
		BusinessStage:    "existing",
	}
}

// Offer returns an offer whose items all carry placeholder assets.
func Offer(name string, items int) playbook.GeneratedOffer {
	o := playbook.GeneratedOffer{
		Name:       name,
		Promise:    "Lose 10 pounds in 6 weeks or train free",
		TotalValue: "$2,000",
		Guarantee:  "Conditional money-back",
		Price:      "$497",
	}
	types := []playbook.AssetType{playbook.AssetScript, playbook.AssetChecklist, playbook.AssetTemplate}
	for i := 0; i < items; i++ {
		o.Stack = append(o.Stack, playbook.OfferStackItem{
			Problem:  fmt.Sprintf("Problem %d", i+1),
			Solution: fmt.Sprintf("Solution %d", i+1),
			Value:    "$500",
			Asset: &playbook.Asset{
				Name:    fmt.Sprintf("%s Asset %d", name, i+1),
				Type:    types[i%len(types)],
				Content: "stub",
			},
		})
	}
	return o
}

// MaterializedContent is long enough to clear the placeholder threshold.
func MaterializedContent(title string) string {
	return "# " + title + "\n\n" + strings.Repeat("Step by step instructions for the owner. ", 4)
}

// Complete returns a playbook with all twelve sections and two placeholder assets per offer.
func Complete() playbook.GeneratedPlaybook {
	o1 := Offer("Fast Start Challenge", 2)
	o2 := Offer("VIP Coaching", 2)
	return playbook.GeneratedPlaybook{
		Diagnosis: &playbook.Diagnosis{
			CurrentStage: "Stage 3: Growth",
			YourRole:     "Operator",
			Constraints:  []string{"Retention", "Lead flow"},
			Actions:      []string{"Launch a challenge", "Raise prices"},
		},
		MoneyModelAnalysis: &playbook.MoneyModelAnalysis{
			OldModel: playbook.ModelSnapshot{Title: "Old", Description: "Single membership",
				Metrics: []playbook.Metric{{Label: "LTV", Value: "$450"}}},
			NewModel: playbook.ModelSnapshot{Title: "New", Description: "Attraction + upsell",
				Metrics: []playbook.Metric{{Label: "LTV", Value: "$1,800"}}},
			LtvCacAnalysis:     playbook.LtvCacAnalysis{AutomationLevel: "Low", TargetRatio: "3:1", Explanation: "Manual sales"},
			ProjectedEconomics: playbook.ProjectedEconomics{EstimatedCAC: "$120", TargetLTV: "$1,800", ProjectedRatio: "15:1"},
		},
		MoneyModelMechanisms: &playbook.MoneyModelMechanisms{
			Title:         "Toolkit",
			CorePrinciple: "Get cash first",
			Mechanisms: []playbook.Mechanism{{MechanismType: "Attraction", TacticName: "Win your money back",
				Strategy: "Challenge", Example: "6-week challenge"}},
		},
		MoneyModel: &playbook.MoneyModel{
			Title:         "Funnel",
			CorePrinciple: "Ladder",
			Steps: []playbook.MoneyModelStep{
				{StepNumber: 1, Title: "Attract", OfferName: o1.Name, Price: o1.Price},
				{StepNumber: 2, Title: "Upsell", OfferName: o2.Name, Price: o2.Price},
			},
			Summary: "Two-step ladder",
		},
		Offer1: &o1,
		Offer2: &o2,
		Downsell: &playbook.Downsell{
			Rationale: "Catch the no",
			Offer:     Offer("Starter Pass", 2),
		},
		MarketingModel: &playbook.MarketingModel{Steps: []playbook.MarketingStep{
			{Method: "Warm outreach", Strategy: "Text past members", Example: "Hey!", Template: "Hi {name}"},
		}},
		SalesFunnel: &playbook.SalesFunnel{
			Title: "Funnel",
			Stages: []playbook.FunnelStage{{
				StageName:    "Lead",
				Goal:         "Book call",
				AdCopy:       playbook.AdCopy{Headline: "Get fit", Body: "Six weeks", CTA: "Join"},
				LandingPage:  playbook.LandingPage{Headline: "Transform", Elements: []string{"Proof", "Offer"}, KeyFocus: "Urgency"},
				SalesProcess: []playbook.SalesStep{{Step: "Call", ScriptFocus: "Pain"}},
				KeyMetric:    "Show rate",
			}},
		},
		ProfitPath: &playbook.ProfitPath{Steps: []playbook.ProfitStep{
			{Title: "Upsell", Action: "Offer coaching", Example: "At week 4", Script: "Would you like..."},
		}},
		OperationsPlan: &playbook.OperationsPlan{
			Title:                 "Ops",
			OutcomesAndActivities: []playbook.OutcomeActivity{{Outcome: "Leads", Activity: "Outreach", TimeAllocation: "2h", Frequency: "Daily"}},
			BottleneckAnalysis:    "Owner sells",
			ProposedRoles:         []playbook.ProposedRole{{RoleTitle: "Closer", Responsibilities: []string{"Calls"}}},
		},
		KpiDashboard: &playbook.KpiDashboard{
			Title: "Scorecard",
			KPIs:  []playbook.KPI{{Name: "CAC", Perspective: "Financial", Formula: "Spend / Customers"}},
		},
	}
}
