package studio

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/generation"
)

func testBoard() *Board {
	return NewBoard([]catalog.ContentType{
		{Key: "linkedin", Label: "LinkedIn Post", Share: catalog.ShareLinkedIn},
		{Key: "email", Label: "Email", Share: catalog.ShareEmail},
		{Key: "blog", Label: "Blog Post"},
	})
}

func TestApplyKeepsLayout(t *testing.T) {
	b := testBoard()

	b.Apply(generation.Update{Index: 0, Status: generation.StatusDone, Content: "Post text", Type: "ignored"})

	s, _ := b.Slot(0)
	if s.Type.Label != "LinkedIn Post" {
		t.Errorf("expected label to stay fixed, got %s", s.Type.Label)
	}
	if s.Content != "Post text" || s.Generating() {
		t.Errorf("expected done slot with content, got %+v", s)
	}
	if !b.Busy() {
		t.Errorf("expected board busy while later slots generate")
	}
	if err := b.Apply(generation.Update{Index: 7}); !errors.Is(err, ErrSlotRange) {
		t.Errorf("expected ErrSlotRange, got %v", err)
	}
}

func TestEditRejectedWhileGenerating(t *testing.T) {
	b := testBoard()

	if _, err := b.ToggleEdit(1); !errors.Is(err, ErrSlotBusy) {
		t.Errorf("expected ErrSlotBusy, got %v", err)
	}
}

func TestEditFlow(t *testing.T) {
	b := testBoard()
	b.Apply(generation.Update{Index: 2, Status: generation.StatusDone, Content: "draft"})

	if err := b.SetContent(2, "nope"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}

	editing, err := b.ToggleEdit(2)
	if err != nil || !editing {
		t.Fatalf("expected edit mode on, got %t %v", editing, err)
	}
	if err := b.SetContent(2, "final copy"); err != nil {
		t.Fatal(err)
	}
	editing, _ = b.ToggleEdit(2)
	if editing {
		t.Errorf("expected edit mode off")
	}

	s, _ := b.Slot(2)
	if s.Content != "final copy" || !s.Edited {
		t.Errorf("expected edited content kept, got %+v", s)
	}
	out, _ := b.Copy(2)
	if out != "final copy" {
		t.Errorf("expected copy to return raw content, got %q", out)
	}
}

func TestFailedAndSkipped(t *testing.T) {
	b := testBoard()
	b.Apply(generation.Update{Index: 0, Status: generation.StatusDone, Content: "ok"})
	b.Apply(generation.Update{Index: 1, Status: generation.StatusFailed, Error: "Content generation failed. Please try again."})
	b.Apply(generation.Update{Index: 2, Status: generation.StatusSkipped})

	if b.Busy() {
		t.Errorf("expected board idle after terminal updates")
	}
	msg, failed := b.Failed()
	if !failed || !strings.Contains(msg, "try again") {
		t.Errorf("expected failure message, got %q", msg)
	}
}

func TestShareLinkedIn(t *testing.T) {
	b := testBoard()
	b.Apply(generation.Update{Index: 0, Status: generation.StatusDone, Content: "Rates & you #mortgage"})

	u, err := b.Share(0)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Host != "www.linkedin.com" {
		t.Errorf("expected linkedin host, got %s", parsed.Host)
	}
	if got := parsed.Query().Get("text"); got != "Rates & you #mortgage" {
		t.Errorf("expected content round trip, got %q", got)
	}
}

func TestShareEmailSplitsSubject(t *testing.T) {
	u, ok := ShareURL(catalog.ShareEmail, "Subject: Rates just moved\n\nHi there,\nQuick update & next steps.")
	if !ok {
		t.Fatal("expected email to be shareable")
	}
	if !strings.HasPrefix(u, "mailto:?subject=Rates%20just%20moved&body=") {
		t.Errorf("unexpected mailto URL %s", u)
	}
	if !strings.Contains(u, "%26%20next%20steps.") {
		t.Errorf("expected ampersand and spaces escaped in body, got %s", u)
	}
}

func TestShareUnsupported(t *testing.T) {
	b := testBoard()
	b.Apply(generation.Update{Index: 2, Status: generation.StatusDone, Content: "long read"})

	if _, err := b.Share(2); !errors.Is(err, ErrNotShareable) {
		t.Errorf("expected ErrNotShareable, got %v", err)
	}
	if _, ok := ShareURL("", "x"); ok {
		t.Errorf("expected no URL for empty target")
	}
}

func TestShareX(t *testing.T) {
	u, _ := ShareURL(catalog.ShareX, "Rates down")
	if u != "https://twitter.com/intent/tweet?text=Rates+down" {
		t.Errorf("unexpected X URL %s", u)
	}
}
