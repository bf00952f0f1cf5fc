package playbook

import "strings"

// PlaceholderThreshold is the trimmed content length below which an asset counts as not yet
// generated. Offers come back from the model with short stub content for every asset; the full
// text is produced lazily on export. The boundary is exact: 49 is a placeholder, 50 is not.
const PlaceholderThreshold = 50

type AssetType string

const (
	AssetTemplate  AssetType = "template"
	AssetFramework AssetType = "framework"
	AssetChecklist AssetType = "checklist"
	AssetScript    AssetType = "script"
	AssetGuide     AssetType = "guide"
)

type Asset struct {
	Name    string    `json:"name"`
	Type    AssetType `json:"type"`
	Content string    `json:"content"`
}

func (a Asset) IsPlaceholder() bool {
	return len(strings.TrimSpace(a.Content)) < PlaceholderThreshold
}

type OfferStackItem struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
	Value    string `json:"value"`
	Asset    *Asset `json:"asset"`
}

// HasAsset reports whether the item carries a downloadable asset descriptor.
func (i OfferStackItem) HasAsset() bool {
	return i.Asset != nil
}

// NeedsContent is true when the item has an asset whose content is still a placeholder.
func (i OfferStackItem) NeedsContent() bool {
	return i.Asset != nil && i.Asset.IsPlaceholder()
}

// WithContent returns a copy of the item whose asset carries content.
func (i OfferStackItem) WithContent(content string) OfferStackItem {
	if i.Asset == nil {
		return i
	}
	a := *i.Asset
	a.Content = content
	i.Asset = &a
	return i
}

func (i OfferStackItem) Clone() OfferStackItem {
	if i.Asset != nil {
		a := *i.Asset
		i.Asset = &a
	}
	return i
}

type GeneratedOffer struct {
	Name                string           `json:"name"`
	Promise             string           `json:"promise"`
	Stack               []OfferStackItem `json:"stack"`
	StrategyBehindStack string           `json:"strategyBehindStack"`
	TotalValue          string           `json:"totalValue"`
	Guarantee           string           `json:"guarantee"`
	Price               string           `json:"price"`
}

// Clone deep-copies the offer so callers can replace asset content without touching the original.
func (o GeneratedOffer) Clone() GeneratedOffer {
	if o.Stack != nil {
		stack := make([]OfferStackItem, len(o.Stack))
		for i, item := range o.Stack {
			stack[i] = item.Clone()
		}
		o.Stack = stack
	}
	return o
}

// WithItem returns a copy of o with stack item i replaced. An out-of-range index returns an
// unchanged copy.
func (o GeneratedOffer) WithItem(i int, item OfferStackItem) GeneratedOffer {
	out := o.Clone()
	if i >= 0 && i < len(out.Stack) {
		out.Stack[i] = item.Clone()
	}
	return out
}

// AssetCount counts stack items that carry an asset.
func (o GeneratedOffer) AssetCount() int {
	n := 0
	for _, item := range o.Stack {
		if item.HasAsset() {
			n++
		}
	}
	return n
}

// PlaceholderCount counts assets that still need content.
func (o GeneratedOffer) PlaceholderCount() int {
	n := 0
	for _, item := range o.Stack {
		if item.NeedsContent() {
			n++
		}
	}
	return n
}

type Downsell struct {
	Rationale string         `json:"rationale"`
	Offer     GeneratedOffer `json:"offer"`
}
