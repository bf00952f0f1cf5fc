package playbook

import (
	"errors"
	"fmt"
)

// SectionKind identifies one of the twelve generated sections. The values double as JSON keys on
// GeneratedPlaybook and as pipeline stage keys.
type SectionKind string

const (
	SectionDiagnosis            SectionKind = "diagnosis"
	SectionMoneyModelAnalysis   SectionKind = "moneyModelAnalysis"
	SectionMoneyModelMechanisms SectionKind = "moneyModelMechanisms"
	SectionMoneyModel           SectionKind = "moneyModel"
	SectionOffer1               SectionKind = "offer1"
	SectionOffer2               SectionKind = "offer2"
	SectionDownsell             SectionKind = "downsell"
	SectionMarketingModel       SectionKind = "marketingModel"
	SectionSalesFunnel          SectionKind = "salesFunnel"
	SectionProfitPath           SectionKind = "profitPath"
	SectionOperationsPlan       SectionKind = "operationsPlan"
	SectionKpiDashboard         SectionKind = "kpiDashboard"
)

// SectionOrder is the canonical generation order.
var SectionOrder = []SectionKind{
	SectionDiagnosis,
	SectionMoneyModelAnalysis,
	SectionMoneyModelMechanisms,
	SectionMoneyModel,
	SectionOffer1,
	SectionOffer2,
	SectionDownsell,
	SectionMarketingModel,
	SectionSalesFunnel,
	SectionProfitPath,
	SectionOperationsPlan,
	SectionKpiDashboard,
}

func (k SectionKind) Valid() bool {
	for _, s := range SectionOrder {
		if s == k {
			return true
		}
	}
	return false
}

// Section is the value produced by one generation stage.
type Section interface {
	isSection()
}

func (Diagnosis) isSection()            {}
func (MoneyModelAnalysis) isSection()   {}
func (MoneyModelMechanisms) isSection() {}
func (MoneyModel) isSection()           {}
func (GeneratedOffer) isSection()       {}
func (Downsell) isSection()             {}
func (MarketingModel) isSection()       {}
func (SalesFunnel) isSection()          {}
func (ProfitPath) isSection()           {}
func (OperationsPlan) isSection()       {}
func (KpiDashboard) isSection()         {}

// GeneratedPlaybook is the finished plan. Consumers only ever see complete values; partial state
// lives in a Draft.
type GeneratedPlaybook struct {
	Diagnosis            *Diagnosis            `json:"diagnosis"`
	MoneyModelAnalysis   *MoneyModelAnalysis   `json:"moneyModelAnalysis"`
	MoneyModelMechanisms *MoneyModelMechanisms `json:"moneyModelMechanisms"`
	MoneyModel           *MoneyModel           `json:"moneyModel"`
	Offer1               *GeneratedOffer       `json:"offer1"`
	Offer2               *GeneratedOffer       `json:"offer2"`
	Downsell             *Downsell             `json:"downsell"`
	MarketingModel       *MarketingModel       `json:"marketingModel"`
	SalesFunnel          *SalesFunnel          `json:"salesFunnel"`
	ProfitPath           *ProfitPath           `json:"profitPath"`
	OperationsPlan       *OperationsPlan       `json:"operationsPlan"`
	KpiDashboard         *KpiDashboard         `json:"kpiDashboard"`
}

func (p GeneratedPlaybook) Complete() bool {
	return len(p.Missing()) == 0
}

// Missing lists the sections not yet populated, in generation order.
func (p GeneratedPlaybook) Missing() []SectionKind {
	present := map[SectionKind]bool{
		SectionDiagnosis:            p.Diagnosis != nil,
		SectionMoneyModelAnalysis:   p.MoneyModelAnalysis != nil,
		SectionMoneyModelMechanisms: p.MoneyModelMechanisms != nil,
		SectionMoneyModel:           p.MoneyModel != nil,
		SectionOffer1:               p.Offer1 != nil,
		SectionOffer2:               p.Offer2 != nil,
		SectionDownsell:             p.Downsell != nil,
		SectionMarketingModel:       p.MarketingModel != nil,
		SectionSalesFunnel:          p.SalesFunnel != nil,
		SectionProfitPath:           p.ProfitPath != nil,
		SectionOperationsPlan:       p.OperationsPlan != nil,
		SectionKpiDashboard:         p.KpiDashboard != nil,
	}
	var out []SectionKind
	for _, k := range SectionOrder {
		if !present[k] {
			out = append(out, k)
		}
	}
	return out
}

// OfferSlot names one of the three offers a playbook carries.
type OfferSlot string

const (
	SlotOffer1   OfferSlot = "offer1"
	SlotOffer2   OfferSlot = "offer2"
	SlotDownsell OfferSlot = "downsell"
)

var OfferSlots = []OfferSlot{SlotOffer1, SlotOffer2, SlotDownsell}

// Title is the heading an offer gets in the kit and its index page.
func (s OfferSlot) Title() string {
	switch s {
	case SlotOffer1:
		return "Grand Slam Offer 1"
	case SlotOffer2:
		return "Grand Slam Offer 2"
	case SlotDownsell:
		return "Downsell 'Hello' Offer"
	}
	return string(s)
}

func (s OfferSlot) Valid() bool {
	return s == SlotOffer1 || s == SlotOffer2 || s == SlotDownsell
}

// Offer returns the offer in slot, or nil when that section is missing.
func (p GeneratedPlaybook) Offer(slot OfferSlot) *GeneratedOffer {
	switch slot {
	case SlotOffer1:
		return p.Offer1
	case SlotOffer2:
		return p.Offer2
	case SlotDownsell:
		if p.Downsell == nil {
			return nil
		}
		return &p.Downsell.Offer
	}
	return nil
}

// WithOffer returns a copy of p whose slot holds offer. The receiver is left untouched.
func (p GeneratedPlaybook) WithOffer(slot OfferSlot, offer GeneratedOffer) GeneratedPlaybook {
	o := offer
	switch slot {
	case SlotOffer1:
		p.Offer1 = &o
	case SlotOffer2:
		p.Offer2 = &o
	case SlotDownsell:
		d := Downsell{Offer: o}
		if p.Downsell != nil {
			d.Rationale = p.Downsell.Rationale
		}
		p.Downsell = &d
	}
	return p
}

// TotalAssets counts asset-bearing stack items across the three offers.
func (p GeneratedPlaybook) TotalAssets() int {
	n := 0
	for _, slot := range OfferSlots {
		if o := p.Offer(slot); o != nil {
			n += o.AssetCount()
		}
	}
	return n
}

var ErrIncomplete = errors.New("playbook is incomplete")

// Draft accumulates stage results. It is owned by a single builder run and never shared.
type Draft struct {
	pb GeneratedPlaybook
}

// Set stores section under kind. The dynamic type must match the kind.
func (d *Draft) Set(kind SectionKind, section Section) error {
	mismatch := fmt.Errorf("section %T does not match kind %q", section, kind)
	switch kind {
	case SectionDiagnosis:
		v, ok := section.(Diagnosis)
		if !ok {
			return mismatch
		}
		d.pb.Diagnosis = &v
	case SectionMoneyModelAnalysis:
		v, ok := section.(MoneyModelAnalysis)
		if !ok {
			return mismatch
		}
		d.pb.MoneyModelAnalysis = &v
	case SectionMoneyModelMechanisms:
		v, ok := section.(MoneyModelMechanisms)
		if !ok {
			return mismatch
		}
		d.pb.MoneyModelMechanisms = &v
	case SectionMoneyModel:
		v, ok := section.(MoneyModel)
		if !ok {
			return mismatch
		}
		d.pb.MoneyModel = &v
	case SectionOffer1, SectionOffer2:
		v, ok := section.(GeneratedOffer)
		if !ok {
			return mismatch
		}
		if kind == SectionOffer1 {
			d.pb.Offer1 = &v
		} else {
			d.pb.Offer2 = &v
		}
	case SectionDownsell:
		v, ok := section.(Downsell)
		if !ok {
			return mismatch
		}
		d.pb.Downsell = &v
	case SectionMarketingModel:
		v, ok := section.(MarketingModel)
		if !ok {
			return mismatch
		}
		d.pb.MarketingModel = &v
	case SectionSalesFunnel:
		v, ok := section.(SalesFunnel)
		if !ok {
			return mismatch
		}
		d.pb.SalesFunnel = &v
	case SectionProfitPath:
		v, ok := section.(ProfitPath)
		if !ok {
			return mismatch
		}
		d.pb.ProfitPath = &v
	case SectionOperationsPlan:
		v, ok := section.(OperationsPlan)
		if !ok {
			return mismatch
		}
		d.pb.OperationsPlan = &v
	case SectionKpiDashboard:
		v, ok := section.(KpiDashboard)
		if !ok {
			return mismatch
		}
		d.pb.KpiDashboard = &v
	default:
		return fmt.Errorf("unknown section kind %q", kind)
	}
	return nil
}

// Finalize returns the playbook once every section is present.
func (d *Draft) Finalize() (GeneratedPlaybook, error) {
	if missing := d.pb.Missing(); len(missing) > 0 {
		return GeneratedPlaybook{}, fmt.Errorf("%w: missing %v", ErrIncomplete, missing)
	}
	return d.pb, nil
}
