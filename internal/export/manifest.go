package export

import (
	"fmt"
	"strings"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
)

// DocType says how a manifest entry is rendered.
type DocType string

const (
	DocStartGuide DocType = "start-guide"
	DocSection    DocType = "section"
	DocBundle     DocType = "bundle"
	DocAsset      DocType = "asset"
)

const (
	startGuidePath  = "00_START_HERE_Guide.pdf"
	assetLibrary    = "04_Asset_Library"
	bundleFile      = "00_Full_Asset_Bundle"
	fallbackSegment = "Untitled"
)

// Entry is one document in the kit. Path is both the archive key and the index link target.
type Entry struct {
	Path   string
	Label  string
	Strong bool
	Type   DocType
	Kind   Kind
	Slot   playbook.OfferSlot
	Item   int
}

// Card groups entries on the index page.
type Card struct {
	Title   string
	Entries []Entry
}

// OfferGroup is one offer's folder in the asset library.
type OfferGroup struct {
	Slot   playbook.OfferSlot
	Title  string
	Name   string
	Folder string
	Bundle Entry
	Assets []Entry
}

// Manifest lists every document of a kit export. The archive and the index page are both built
// from it, so every link has exactly one archive entry.
type Manifest struct {
	Cards  []Card
	Offers []OfferGroup
}

type cardSpec struct {
	title   string
	entries []Entry
}

var kitCards = []cardSpec{
	{title: "🚀 Getting Started", entries: []Entry{
		{Path: startGuidePath, Label: "START HERE: Read Me First", Strong: true, Type: DocStartGuide},
		{Path: "01_Core_Plan/Business_Concepts_Guide.pdf", Label: "Explain The Concepts", Type: DocSection, Kind: KindConceptsGuide},
	}},
	{title: "📝 Core Plan", entries: []Entry{
		{Path: "01_Core_Plan/Full_Business_Playbook.pdf", Label: "Full Business Playbook", Type: DocSection, Kind: KindFull},
		{Path: "01_Core_Plan/Business_Scorecard_(KPIs).pdf", Label: "Business Scorecard (KPIs)", Type: DocSection, Kind: KindKpiDashboard},
		{Path: "01_Core_Plan/Offer_Presentation_Slides.pdf", Label: "Offer Presentation Slides", Type: DocSection, Kind: KindOfferPresentation},
	}},
	{title: "💰 Money Models", entries: []Entry{
		{Path: "02_Money_Models/Your_Money_Making_Plan.pdf", Label: "Your Money Making Plan", Type: DocSection, Kind: KindCfaModel},
	}},
	{title: "📢 Marketing Materials", entries: []Entry{
		{Path: "03_Marketing_Materials/High-Converting_Landing_Page.pdf", Label: "High-Converting Landing Page", Type: DocSection, Kind: KindLandingPage},
		{Path: "03_Marketing_Materials/Simple_Offer_Flyer.pdf", Label: "Simple Offer Flyer", Type: DocSection, Kind: KindDownsellPamphlet},
		{Path: "03_Marketing_Materials/Customer_Follow-Up_Note.pdf", Label: "Customer Follow-Up Note", Type: DocSection, Kind: KindTripwireFollowup},
	}},
}

// nameSet hands out unique names. Comparison ignores case so the kit also extracts cleanly on
// case-insensitive filesystems.
type nameSet map[string]bool

func (s nameSet) claim(base string) string {
	name := base
	for n := 2; s[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	s[strings.ToLower(name)] = true
	return name
}

func segment(parts ...string) string {
	for i, p := range parts {
		parts[i] = Sanitize(p)
	}
	s := strings.Join(parts, "_")
	if strings.Trim(s, "_.") == "" {
		return fallbackSegment
	}
	return s
}

// BuildManifest lays out the kit for pb. Offers that are missing are skipped.
func BuildManifest(pb playbook.GeneratedPlaybook) Manifest {
	var m Manifest
	for _, c := range kitCards {
		m.Cards = append(m.Cards, Card{Title: c.title, Entries: append([]Entry(nil), c.entries...)})
	}

	folders := nameSet{}
	for _, slot := range playbook.OfferSlots {
		offer := pb.Offer(slot)
		if offer == nil {
			continue
		}
		folder := assetLibrary + "/" + folders.claim(segment(offer.Name))
		files := nameSet{}
		g := OfferGroup{
			Slot:   slot,
			Title:  slot.Title(),
			Name:   offer.Name,
			Folder: folder,
			Bundle: Entry{
				Path:   folder + "/" + files.claim(bundleFile) + ".pdf",
				Label:  "Full Asset Bundle (PDF)",
				Strong: true,
				Type:   DocBundle,
				Slot:   slot,
			},
		}
		for i, item := range offer.Stack {
			if !item.HasAsset() {
				continue
			}
			name := files.claim(segment(string(item.Asset.Type), item.Asset.Name))
			g.Assets = append(g.Assets, Entry{
				Path:  folder + "/" + name + ".pdf",
				Label: item.Asset.Name,
				Type:  DocAsset,
				Slot:  slot,
				Item:  i,
			})
		}
		m.Offers = append(m.Offers, g)
	}
	return m
}

// Entries returns every document in archive order.
func (m Manifest) Entries() []Entry {
	var out []Entry
	for _, c := range m.Cards {
		out = append(out, c.Entries...)
	}
	for _, g := range m.Offers {
		out = append(out, g.Bundle)
		out = append(out, g.Assets...)
	}
	return out
}
