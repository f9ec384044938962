package profile

// SignificantPerson names someone who matters in the user's life, so the
// companion can refer to them the way the user does.
type SignificantPerson struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// Document is the text of a clinical document the user attached to their
// profile. Content is stored verbatim and injected into the prompt context.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Profile captures the user's identity and clinical context. A single
// profile is active at a time; saving replaces it wholesale.
type Profile struct {
	PreferredName       string              `json:"preferredName,omitempty"`
	Pronouns            string              `json:"pronouns,omitempty"`
	AgeRange            string              `json:"ageRange,omitempty"`
	Diagnoses           string              `json:"diagnoses,omitempty"`
	Medications         string              `json:"medications,omitempty"`
	TreatmentHistory    string              `json:"treatmentHistory,omitempty"`
	CommunicationStyle  []string            `json:"communicationStyle,omitempty"`
	CustomCommunication string              `json:"customCommunication,omitempty"`
	Triggers            string              `json:"triggers,omitempty"`
	TherapyGoals        string              `json:"therapyGoals,omitempty"`
	CopingStrategies    string              `json:"copingStrategies,omitempty"`
	CurrentStressors    string              `json:"currentStressors,omitempty"`
	TherapistInfo       string              `json:"therapistInfo,omitempty"`
	SignificantPeople   []SignificantPerson `json:"significantPeople,omitempty"`
	Documents           []Document          `json:"documents,omitempty"`
	ProfilePhoto        string              `json:"profilePhoto,omitempty"`
}

// NameUsage tracks how recently the assistant addressed the user by name,
// so the prompt can pace name use instead of opening every reply with it.
type NameUsage struct {
	TotalUsageCount       int `json:"totalUsageCount"`
	MessagesSinceLastName int `json:"messagesSinceLastName"`
}
