package profile_test

import (
	"strings"
	"testing"

	profilemodel "github.com/talbothq/talbot/backend/internal/model/profile"
	"github.com/talbothq/talbot/backend/internal/service/profile"
	"github.com/talbothq/talbot/backend/internal/store"
)

func TestContextTextEmptyWithoutProfile(t *testing.T) {
	svc := profile.NewService(store.NewMemoryStore())
	if got := svc.ContextText(); got != "" {
		t.Fatalf("expected empty context, got %q", got)
	}
}

func TestContextTextRendersConfiguredFields(t *testing.T) {
	svc := profile.NewService(store.NewMemoryStore())
	svc.Save(profilemodel.Profile{
		PreferredName: "Sam",
		Pronouns:      "they/them",
		Diagnoses:     "generalised anxiety",
		SignificantPeople: []profilemodel.SignificantPerson{
			{Name: "Alex", Relationship: "partner"},
		},
	})

	text := svc.ContextText()
	for _, want := range []string{"Call me: Sam", "Pronouns: they/them", "generalised anxiety", "Alex (partner)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("context missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Current medications") {
		t.Fatal("unset fields must not be rendered")
	}
}

func TestSaveReplacesProfileAndResetsUsage(t *testing.T) {
	svc := profile.NewService(store.NewMemoryStore())
	svc.Save(profilemodel.Profile{PreferredName: "Sam"})
	svc.RecordUserTurn()
	svc.RecordUserTurn()

	svc.Save(profilemodel.Profile{PreferredName: "Jo"})
	usage := svc.NameUsage()
	if usage.MessagesSinceLastName != 0 || usage.TotalUsageCount != 0 {
		t.Fatalf("expected reset counters after save, got %+v", usage)
	}
	if svc.PreferredName() != "Jo" {
		t.Fatalf("expected replaced profile, got %q", svc.PreferredName())
	}
}

func TestNameUsageCounters(t *testing.T) {
	svc := profile.NewService(store.NewMemoryStore())
	svc.Save(profilemodel.Profile{PreferredName: "Sam"})

	svc.RecordUserTurn()
	svc.RecordUserTurn()
	if got := svc.NameUsage().MessagesSinceLastName; got != 2 {
		t.Fatalf("expected 2 turns since name, got %d", got)
	}

	svc.RecordNameUse()
	usage := svc.NameUsage()
	if usage.MessagesSinceLastName != 0 {
		t.Fatalf("name use must reset the counter, got %d", usage.MessagesSinceLastName)
	}
	if usage.TotalUsageCount != 1 {
		t.Fatalf("expected total usage 1, got %d", usage.TotalUsageCount)
	}
}

func TestNameUsagePersistedAcrossRestart(t *testing.T) {
	st := store.NewMemoryStore()
	svc := profile.NewService(st)
	svc.Save(profilemodel.Profile{PreferredName: "Sam"})
	svc.RecordUserTurn()
	svc.RecordUserTurn()
	svc.RecordUserTurn()

	reloaded := profile.NewService(st)
	if got := reloaded.NameUsage().MessagesSinceLastName; got != 3 {
		t.Fatalf("expected persisted counter 3, got %d", got)
	}
}

func TestNameGuidance(t *testing.T) {
	svc := profile.NewService(store.NewMemoryStore())
	if got := svc.NameGuidance(); got != "" {
		t.Fatalf("expected no guidance without a profile, got %q", got)
	}

	svc.Save(profilemodel.Profile{PreferredName: "Sam"})
	if got := svc.NameGuidance(); !strings.Contains(got, "avoid overusing") {
		t.Fatalf("expected restraint guidance right after save, got %q", got)
	}

	for i := 0; i < 5; i++ {
		svc.RecordUserTurn()
	}
	if got := svc.NameGuidance(); !strings.Contains(got, "address them by name") {
		t.Fatalf("expected name nudge after threshold, got %q", got)
	}
}
