package profile

import (
	"fmt"
	"log"
	"strings"
	"sync"

	profilemodel "github.com/talbothq/talbot/backend/internal/model/profile"
	"github.com/talbothq/talbot/backend/internal/store"
)

// nameUseThreshold is how many user turns may pass before the prompt
// nudges the model to address the user by name again.
const nameUseThreshold = 5

// Service owns the singleton user profile and the name-usage counters.
// Saving replaces the profile wholesale and resets name pacing.
type Service struct {
	mu      sync.RWMutex
	profile *profilemodel.Profile
	usage   profilemodel.NameUsage
	store   store.Store
}

// NewService loads any persisted profile from the store.
func NewService(st store.Store) *Service {
	svc := &Service{store: st}

	p, usage, err := st.LoadProfile()
	if err != nil {
		log.Printf("[profile] failed to load profile: %v", err)
		return svc
	}
	svc.profile = p
	if usage != nil {
		svc.usage = *usage
	}
	return svc
}

// Get returns a copy of the active profile, or nil when none is set.
func (s *Service) Get() *profilemodel.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Save replaces the active profile and resets the name-usage counters.
func (s *Service) Save(p profilemodel.Profile) {
	s.mu.Lock()
	s.profile = &p
	s.usage = profilemodel.NameUsage{}
	usage := s.usage
	s.mu.Unlock()

	if err := s.store.SaveProfile(p, usage); err != nil {
		log.Printf("[profile] failed to persist profile: %v", err)
	}
}

// Clear removes the active profile and its counters.
func (s *Service) Clear() {
	s.mu.Lock()
	s.profile = nil
	s.usage = profilemodel.NameUsage{}
	s.mu.Unlock()

	if err := s.store.DeleteProfile(); err != nil {
		log.Printf("[profile] failed to delete persisted profile: %v", err)
	}
}

// PreferredName returns the user's preferred name, or "" when unset.
func (s *Service) PreferredName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.PreferredName
}

// NameUsage returns the current counters.
func (s *Service) NameUsage() profilemodel.NameUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

// RecordUserTurn counts a user message turn towards name pacing. Called
// once per accepted send, before the outbound context is built.
func (s *Service) RecordUserTurn() {
	s.mu.Lock()
	s.usage.MessagesSinceLastName++
	usage := s.usage
	hasProfile := s.profile != nil
	s.mu.Unlock()

	if hasProfile {
		s.persistUsage(usage)
	}
}

// RecordNameUse resets the pacing counter after a reply that addressed
// the user by name.
func (s *Service) RecordNameUse() {
	s.mu.Lock()
	s.usage.MessagesSinceLastName = 0
	s.usage.TotalUsageCount++
	usage := s.usage
	hasProfile := s.profile != nil
	s.mu.Unlock()

	if hasProfile {
		s.persistUsage(usage)
	}
}

func (s *Service) persistUsage(usage profilemodel.NameUsage) {
	if err := s.store.SaveNameUsage(usage); err != nil {
		log.Printf("[profile] failed to persist name usage: %v", err)
	}
}

// NameGuidance renders the name-pacing hint for the outbound prompt.
// Empty when no preferred name is configured.
func (s *Service) NameGuidance() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil || s.profile.PreferredName == "" {
		return ""
	}
	if s.usage.MessagesSinceLastName >= nameUseThreshold {
		return fmt.Sprintf("It has been a while since you used %s's name; address them by name naturally in this reply.", s.profile.PreferredName)
	}
	return fmt.Sprintf("You addressed %s by name recently; avoid overusing their name.", s.profile.PreferredName)
}

// ContextText renders the profile as the plain-text block injected into
// the outbound prompt. Empty string when no profile is set.
func (s *Service) ContextText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	p := s.profile

	var lines []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}

	add("Call me", p.PreferredName)
	add("Pronouns", p.Pronouns)
	add("Age", p.AgeRange)
	add("Mental health conditions", p.Diagnoses)
	add("Current medications", p.Medications)
	add("Treatment background", p.TreatmentHistory)
	if len(p.CommunicationStyle) > 0 {
		add("Communication preferences", strings.Join(p.CommunicationStyle, ", "))
	}
	add("Custom communication instructions", p.CustomCommunication)
	add("Sensitive topics", p.Triggers)
	add("Current therapy goals", p.TherapyGoals)
	add("Effective coping strategies", p.CopingStrategies)
	add("Current stressors", p.CurrentStressors)
	add("Therapist information", p.TherapistInfo)
	if len(p.SignificantPeople) > 0 {
		var people []string
		for _, person := range p.SignificantPeople {
			people = append(people, fmt.Sprintf("%s (%s)", person.Name, person.Relationship))
		}
		add("Important people", strings.Join(people, ", "))
	}
	for _, doc := range p.Documents {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- Clinical document %q:\n%s", doc.Name, doc.Content))
	}

	if len(lines) == 0 {
		return ""
	}
	return "User Profile Context:\n" + strings.Join(lines, "\n")
}
