package export

import (
	"strings"
	"testing"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
)

func TestSanitize(t *testing.T) {
	cases := []struct{ in, want string }{
		{`Fast Start Challenge`, "Fast_Start_Challenge"},
		{`a/b:c*d?"e<f>g|h\i`, "abcdefghi"},
		{`Downsell 'Hello' (Offer)`, "Downsell_'Hello'_(Offer)"},
		{`  two  spaces `, "__two__spaces_"},
		{`Résumé Template: v2 / ops`, "Résumé_Template_v2__ops"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilenames(t *testing.T) {
	if got := KindFull.Filename(); got != "Hormozi_AI_full.pdf" {
		t.Fatalf("unexpected section filename %q", got)
	}
	if got := AssetFilename("Morning Routine Checklist"); got != "Morning_Routine_Checklist.pdf" {
		t.Fatalf("unexpected asset filename %q", got)
	}
	if got := AssetFilename(""); got != "Hormozi_AI_Asset.pdf" {
		t.Fatalf("unexpected fallback filename %q", got)
	}
	if got := BundleFilename("VIP Coaching"); got != "Hormozi_AI_Assets_VIP_Coaching.pdf" {
		t.Fatalf("unexpected bundle filename %q", got)
	}
}

func TestBuildManifestLayout(t *testing.T) {
	m := BuildManifest(playbooktest.Complete())

	paths := map[string]bool{}
	for _, e := range m.Entries() {
		if paths[e.Path] {
			t.Fatalf("duplicate path %q", e.Path)
		}
		paths[e.Path] = true
	}
	for _, want := range []string{
		"00_START_HERE_Guide.pdf",
		"01_Core_Plan/Business_Concepts_Guide.pdf",
		"01_Core_Plan/Full_Business_Playbook.pdf",
		"01_Core_Plan/Business_Scorecard_(KPIs).pdf",
		"01_Core_Plan/Offer_Presentation_Slides.pdf",
		"02_Money_Models/Your_Money_Making_Plan.pdf",
		"03_Marketing_Materials/High-Converting_Landing_Page.pdf",
		"03_Marketing_Materials/Simple_Offer_Flyer.pdf",
		"03_Marketing_Materials/Customer_Follow-Up_Note.pdf",
		"04_Asset_Library/Fast_Start_Challenge/00_Full_Asset_Bundle.pdf",
		"04_Asset_Library/Fast_Start_Challenge/script_Fast_Start_Challenge_Asset_1.pdf",
		"04_Asset_Library/Fast_Start_Challenge/checklist_Fast_Start_Challenge_Asset_2.pdf",
		"04_Asset_Library/VIP_Coaching/00_Full_Asset_Bundle.pdf",
		"04_Asset_Library/Starter_Pass/script_Starter_Pass_Asset_1.pdf",
	} {
		if !paths[want] {
			t.Fatalf("manifest missing %q", want)
		}
	}
	// 9 core documents, 3 bundles, 6 assets.
	if len(paths) != 18 {
		t.Fatalf("expected 18 documents, got %d", len(paths))
	}

	titles := []string{}
	for _, g := range m.Offers {
		titles = append(titles, g.Title)
	}
	if strings.Join(titles, "|") != "Grand Slam Offer 1|Grand Slam Offer 2|Downsell 'Hello' Offer" {
		t.Fatalf("unexpected offer titles %v", titles)
	}
}

func TestBuildManifestSkipsItemsWithoutAsset(t *testing.T) {
	pb := playbooktest.Complete()
	o := pb.Offer1.Clone()
	o.Stack = append(o.Stack, playbook.OfferStackItem{Problem: "No asset", Solution: "Call"})
	pb = pb.WithOffer(playbook.SlotOffer1, o)

	m := BuildManifest(pb)
	if got := len(m.Offers[0].Assets); got != 2 {
		t.Fatalf("expected 2 asset entries, got %d", got)
	}
}

func TestBuildManifestDisambiguatesCollisions(t *testing.T) {
	pb := playbooktest.Complete()
	// Same offer name in two slots, and two assets that sanitize to the same file.
	o1 := playbooktest.Offer("Fast: Start", 2)
	o1.Stack[1].Asset.Type = o1.Stack[0].Asset.Type
	o1.Stack[1].Asset.Name = o1.Stack[0].Asset.Name + "?"
	o2 := playbooktest.Offer("Fast Start", 1)
	pb = pb.WithOffer(playbook.SlotOffer1, o1).WithOffer(playbook.SlotOffer2, o2)

	m := BuildManifest(pb)
	if m.Offers[0].Folder != "04_Asset_Library/Fast_Start" || m.Offers[1].Folder != "04_Asset_Library/Fast_Start_2" {
		t.Fatalf("folders not disambiguated: %q %q", m.Offers[0].Folder, m.Offers[1].Folder)
	}
	a := m.Offers[0].Assets
	if a[0].Path != "04_Asset_Library/Fast_Start/script_Fast_Start_Asset_1.pdf" ||
		a[1].Path != "04_Asset_Library/Fast_Start/script_Fast_Start_Asset_1_2.pdf" {
		t.Fatalf("assets not disambiguated: %q %q", a[0].Path, a[1].Path)
	}

	seen := map[string]bool{}
	for _, e := range m.Entries() {
		key := strings.ToLower(e.Path)
		if seen[key] {
			t.Fatalf("collision on %q", e.Path)
		}
		seen[key] = true
	}
}

func TestBuildManifestIsDeterministic(t *testing.T) {
	a := BuildManifest(playbooktest.Complete()).Entries()
	b := BuildManifest(playbooktest.Complete()).Entries()
	if len(a) != len(b) {
		t.Fatalf("entry counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Path != b[i].Path {
			t.Fatalf("entry %d differs: %q vs %q", i, a[i].Path, b[i].Path)
		}
	}
}
