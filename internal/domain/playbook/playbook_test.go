package playbook_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/playbook-backend/internal/domain/playbook"
	"github.com/yungbote/playbook-backend/internal/domain/playbook/playbooktest"
)

func TestAssetPlaceholderBoundary(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"", true},
		{"x", true},
		{strings.Repeat("a", 49), true},
		{"   " + strings.Repeat("a", 49) + "\n\n", true},
		{strings.Repeat("a", 50), false},
		{strings.Repeat("a", 500), false},
	}
	for _, tc := range cases {
		got := playbook.Asset{Content: tc.content}.IsPlaceholder()
		if got != tc.want {
			t.Fatalf("IsPlaceholder(len=%d) = %v, want %v", len(tc.content), got, tc.want)
		}
	}
}

func TestOfferCloneDoesNotShareAssets(t *testing.T) {
	orig := playbook.GeneratedOffer{
		Name: "Starter",
		Stack: []playbook.OfferStackItem{
			{Problem: "p", Asset: &playbook.Asset{Name: "Script", Content: "stub"}},
		},
	}
	cp := orig.Clone()
	cp.Stack[0] = cp.Stack[0].WithContent("full content")

	if orig.Stack[0].Asset.Content != "stub" {
		t.Fatalf("clone mutated original asset: %q", orig.Stack[0].Asset.Content)
	}
	if cp.Stack[0].Asset.Content != "full content" {
		t.Fatalf("clone content not updated")
	}
}

func TestDraftFinalizeRequiresAllSections(t *testing.T) {
	var d playbook.Draft
	if err := d.Set(playbook.SectionDiagnosis, playbook.Diagnosis{CurrentStage: "Scale"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := d.Finalize(); !errors.Is(err, playbook.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}

	pb := playbooktest.Complete()
	if !pb.Complete() {
		t.Fatalf("fixture should be complete, missing %v", pb.Missing())
	}
}

func TestDraftSetRejectsMismatchedType(t *testing.T) {
	var d playbook.Draft
	if err := d.Set(playbook.SectionOffer1, playbook.Diagnosis{}); err == nil {
		t.Fatalf("expected mismatch error")
	}
	if err := d.Set(playbook.SectionKind("bogus"), playbook.Diagnosis{}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestWithOfferLeavesReceiverUntouched(t *testing.T) {
	pb := playbooktest.Complete()
	before := pb.Downsell.Offer.Name

	next := pb.WithOffer(playbook.SlotDownsell, playbook.GeneratedOffer{Name: "Replacement"})
	if pb.Downsell.Offer.Name != before {
		t.Fatalf("receiver mutated")
	}
	if next.Downsell.Offer.Name != "Replacement" || next.Downsell.Rationale != pb.Downsell.Rationale {
		t.Fatalf("unexpected downsell: %+v", next.Downsell)
	}
	if pb.TotalAssets() != 6 {
		t.Fatalf("TotalAssets = %d", pb.TotalAssets())
	}
}

func TestBusinessFieldsSkipsEmptyAndExcluded(t *testing.T) {
	b := playbook.BusinessData{BusinessType: "Gym", CoreOffer: "PT", Location: "  "}
	got := b.Fields("coreOffer")
	if len(got) != 1 || got["businessType"] != "Gym" {
		t.Fatalf("unexpected fields: %v", got)
	}
	if err := (playbook.BusinessData{}).Validate(); !errors.Is(err, playbook.ErrMissingBusinessType) {
		t.Fatalf("expected ErrMissingBusinessType, got %v", err)
	}
	merged := b.Merge(playbook.BusinessData{BusinessType: "Spa", Country: "NZ"})
	if merged.BusinessType != "Gym" || merged.Country != "NZ" {
		t.Fatalf("unexpected merge: %+v", merged)
	}
}

func TestWithItemReplacesOneItem(t *testing.T) {
	o := playbooktest.Offer("Fast Start", 2)
	item := o.Stack[1].WithContent(strings.Repeat("x", 80))

	got := o.WithItem(1, item)
	if got.Stack[1].Asset.Content != item.Asset.Content {
		t.Fatalf("item not replaced")
	}
	if o.Stack[1].Asset.Content == item.Asset.Content {
		t.Fatalf("receiver was modified")
	}
	if same := o.WithItem(7, item); same.Stack[1].Asset.Content != o.Stack[1].Asset.Content {
		t.Fatalf("out-of-range index changed the offer")
	}
}
