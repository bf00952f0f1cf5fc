package generation

import (
	"fmt"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/platform/jsonx"
)

func decodeAs[T playbook.Section](raw string) (playbook.Section, error) {
	var v T
	if err := jsonx.Parse(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeSection decodes raw into the concrete section type for kind.
func decodeSection(kind playbook.SectionKind, raw string) (playbook.Section, error) {
	switch kind {
	case playbook.SectionDiagnosis:
		return decodeAs[playbook.Diagnosis](raw)
	case playbook.SectionMoneyModelAnalysis:
		return decodeAs[playbook.MoneyModelAnalysis](raw)
	case playbook.SectionMoneyModelMechanisms:
		return decodeAs[playbook.MoneyModelMechanisms](raw)
	case playbook.SectionMoneyModel:
		return decodeAs[playbook.MoneyModel](raw)
	case playbook.SectionOffer1, playbook.SectionOffer2:
		return decodeAs[playbook.GeneratedOffer](raw)
	case playbook.SectionDownsell:
		return decodeAs[playbook.Downsell](raw)
	case playbook.SectionMarketingModel:
		return decodeAs[playbook.MarketingModel](raw)
	case playbook.SectionSalesFunnel:
		return decodeAs[playbook.SalesFunnel](raw)
	case playbook.SectionProfitPath:
		return decodeAs[playbook.ProfitPath](raw)
	case playbook.SectionOperationsPlan:
		return decodeAs[playbook.OperationsPlan](raw)
	case playbook.SectionKpiDashboard:
		return decodeAs[playbook.KpiDashboard](raw)
	}
	return nil, fmt.Errorf("unknown section kind %q", kind)
}
