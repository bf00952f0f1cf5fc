package generation

import (
	"fmt"
	"sort"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
)

// Structured outputs run in strict mode: every property is listed in required and optional
// values are expressed as nullable.

func objectSchema(properties map[string]any) map[string]any {
	req := make([]string, 0, len(properties))
	for k := range properties {
		req = append(req, k)
	}
	sort.Strings(req)
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}

func stringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func describedString(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func nullableString() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func intSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func stringArray() map[string]any {
	return arrayOf(stringSchema())
}

func enumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return map[string]any{"type": "string", "enum": arr}
}

func assetSchema() map[string]any {
	return objectSchema(map[string]any{
		"name": describedString("File name for the asset, e.g. 'High-Converting Ad Template'."),
		"type": enumSchema(
			string(playbook.AssetTemplate),
			string(playbook.AssetFramework),
			string(playbook.AssetChecklist),
			string(playbook.AssetScript),
			string(playbook.AssetGuide),
		),
		"content": describedString("Ready-to-use asset text in simple Markdown."),
	})
}

func offerSchema() map[string]any {
	return objectSchema(map[string]any{
		"name":    stringSchema(),
		"promise": stringSchema(),
		"stack": arrayOf(objectSchema(map[string]any{
			"problem":  stringSchema(),
			"solution": stringSchema(),
			"value":    describedString("Monetary value of this solution, e.g. '$2,000'."),
			"asset":    assetSchema(),
		})),
		"strategyBehindStack": stringSchema(),
		"totalValue":          describedString("Sum of the stack values, e.g. '$20,000'."),
		"guarantee":           stringSchema(),
		"price":               stringSchema(),
	})
}

func modelSnapshotSchema() map[string]any {
	return objectSchema(map[string]any{
		"title":       stringSchema(),
		"description": stringSchema(),
		"metrics": arrayOf(objectSchema(map[string]any{
			"label": stringSchema(),
			"value": stringSchema(),
		})),
	})
}

// sectionSchema returns the schema name and JSON Schema for kind.
func sectionSchema(kind playbook.SectionKind) (string, map[string]any, error) {
	var s map[string]any
	switch kind {
	case playbook.SectionDiagnosis:
		s = objectSchema(map[string]any{
			"currentStage": stringSchema(),
			"yourRole":     stringSchema(),
			"constraints":  stringArray(),
			"actions":      stringArray(),
		})
	case playbook.SectionMoneyModelAnalysis:
		s = objectSchema(map[string]any{
			"oldModel": modelSnapshotSchema(),
			"newModel": modelSnapshotSchema(),
			"ltvCacAnalysis": objectSchema(map[string]any{
				"automationLevel": stringSchema(),
				"targetRatio":     stringSchema(),
				"explanation":     stringSchema(),
			}),
			"projectedEconomics": objectSchema(map[string]any{
				"estimatedCAC":    stringSchema(),
				"targetLTV":       stringSchema(),
				"projectedRatio":  stringSchema(),
				"immediateProfit": stringSchema(),
				"explanation":     stringSchema(),
			}),
		})
	case playbook.SectionMoneyModelMechanisms:
		s = objectSchema(map[string]any{
			"title":         stringSchema(),
			"corePrinciple": stringSchema(),
			"mechanisms": arrayOf(objectSchema(map[string]any{
				"mechanismType":       enumSchema("Attraction", "Upsell", "Downsell", "Continuity"),
				"tacticName":          stringSchema(),
				"strategy":            stringSchema(),
				"example":             stringSchema(),
				"implementationNotes": stringSchema(),
			})),
		})
	case playbook.SectionMoneyModel:
		s = objectSchema(map[string]any{
			"title":         stringSchema(),
			"corePrinciple": stringSchema(),
			"steps": arrayOf(objectSchema(map[string]any{
				"stepNumber":    intSchema(),
				"title":         stringSchema(),
				"offerName":     stringSchema(),
				"price":         stringSchema(),
				"rationale":     stringSchema(),
				"hormoziTactic": stringSchema(),
				"details":       stringSchema(),
			})),
			"summary": stringSchema(),
		})
	case playbook.SectionOffer1, playbook.SectionOffer2:
		s = offerSchema()
	case playbook.SectionDownsell:
		s = objectSchema(map[string]any{
			"rationale": stringSchema(),
			"offer":     offerSchema(),
		})
	case playbook.SectionMarketingModel:
		s = objectSchema(map[string]any{
			"steps": arrayOf(objectSchema(map[string]any{
				"method":   stringSchema(),
				"strategy": stringSchema(),
				"example":  stringSchema(),
				"template": nullableString(),
			})),
		})
	case playbook.SectionSalesFunnel:
		s = objectSchema(map[string]any{
			"title":         stringSchema(),
			"corePrinciple": stringSchema(),
			"stages": arrayOf(objectSchema(map[string]any{
				"stageName": stringSchema(),
				"goal":      stringSchema(),
				"adCopy": objectSchema(map[string]any{
					"headline": stringSchema(),
					"body":     stringSchema(),
					"cta":      stringSchema(),
				}),
				"landingPage": objectSchema(map[string]any{
					"headline": stringSchema(),
					"elements": stringArray(),
					"keyFocus": stringSchema(),
				}),
				"salesProcess": arrayOf(objectSchema(map[string]any{
					"step":        stringSchema(),
					"scriptFocus": stringSchema(),
				})),
				"keyMetric": stringSchema(),
			})),
		})
	case playbook.SectionProfitPath:
		s = objectSchema(map[string]any{
			"steps": arrayOf(objectSchema(map[string]any{
				"title":   stringSchema(),
				"action":  stringSchema(),
				"example": stringSchema(),
				"script":  nullableString(),
			})),
		})
	case playbook.SectionOperationsPlan:
		s = objectSchema(map[string]any{
			"title":         stringSchema(),
			"corePrinciple": stringSchema(),
			"outcomesAndActivities": arrayOf(objectSchema(map[string]any{
				"outcome":        stringSchema(),
				"activity":       stringSchema(),
				"timeAllocation": stringSchema(),
				"frequency":      stringSchema(),
			})),
			"bottleneckAnalysis": stringSchema(),
			"proposedRoles": arrayOf(objectSchema(map[string]any{
				"roleTitle":        stringSchema(),
				"responsibilities": stringArray(),
				"dailyStructure":   stringSchema(),
				"keyMetric":        stringSchema(),
			})),
		})
	case playbook.SectionKpiDashboard:
		s = objectSchema(map[string]any{
			"title":         stringSchema(),
			"corePrinciple": stringSchema(),
			"kpis": arrayOf(objectSchema(map[string]any{
				"name":         stringSchema(),
				"perspective":  enumSchema("Financial", "Customer", "Operational", "Marketing"),
				"description":  stringSchema(),
				"formula":      stringSchema(),
				"howToMeasure": stringSchema(),
				"example":      stringSchema(),
				"importance":   stringSchema(),
			})),
		})
	default:
		return "", nil, fmt.Errorf("no schema for section %q", kind)
	}
	return "playbook_" + string(kind), s, nil
}

func businessDataSchema() map[string]any {
	return objectSchema(map[string]any{
		"country":             describedString("Country the business operates in."),
		"currency":            describedString("Currency code, inferred from the country when not stated."),
		"businessType":        describedString("Type of business, e.g. SaaS, Gym."),
		"location":            describedString("City and state or province."),
		"monthlyRevenue":      describedString("Monthly revenue as a number string."),
		"employees":           describedString("Number of employees."),
		"marketingMethods":    describedString("How the business finds customers."),
		"biggestChallenge":    describedString("Main problem the business faces."),
		"coreOffer":           describedString("Primary product or service and its price."),
		"targetClient":        describedString("Description of the ideal customer."),
		"offerTimeline":       enumSchema("monthly", "quarterly", "half_yearly", "one_time", ""),
		"hasSalesTeam":        enumSchema("yes", "no", ""),
		"monthlyAdSpend":      describedString("Monthly ad spend as a number string."),
		"profitGoal":          describedString("Desired monthly profit as a number string."),
		"hasCertifications":   enumSchema("yes", "no", ""),
		"hasTestimonials":     enumSchema("yes", "no", ""),
		"physicalCapacity":    describedString("Physical capacity constraints."),
		"ancillaryProducts":   describedString("Other products or services sold."),
		"perceivedMaxPrice":   describedString("Value of a perfect result to a customer."),
		"dailyTimeCommitment": describedString("Hours per day available for growth."),
		"businessStage":       enumSchema("new", "existing", ""),
		"fundingStatus":       enumSchema("funded", "bootstrapped", ""),
	})
}
