package model

// Category is the primary intent classification of a ticket.
type Category string

const (
	CategoryTechnique        Category = "technique"
	CategoryFacturation      Category = "facturation"
	CategoryAuthentification Category = "authentification"
	CategoryFeatureRequest   Category = "feature_request"
	CategoryAutre            Category = "autre"
)

// AllCategories lists every valid ticket category.
func AllCategories() []Category {
	return []Category{
		CategoryTechnique,
		CategoryFacturation,
		CategoryAuthentification,
		CategoryFeatureRequest,
		CategoryAutre,
	}
}

// Severity grades the impact of the reported problem.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Treatment is the handling lane assigned to a ticket.
type Treatment string

const (
	TreatmentStandard Treatment = "standard"
	TreatmentPriority Treatment = "priority"
	TreatmentUrgent   Treatment = "urgent"
)

// Provenance records which classifier variant produced a result.
type Provenance string

const (
	ProvenanceLLM       Provenance = "llm"
	ProvenanceHeuristic Provenance = "heuristic"
)

// Weights for the overall classification confidence.
const (
	categoryWeight  = 0.40
	severityWeight  = 0.25
	treatmentWeight = 0.20
	skillsWeight    = 0.15
)

// ClassificationResult is the output of the classifier, regardless of which
// variant (LLM or heuristic) produced it.
type ClassificationResult struct {
	PrimaryCategory Category  `json:"primary_category"`
	Severity        Severity  `json:"severity"`
	Treatment       Treatment `json:"treatment"`

	CategoryConfidence  float64 `json:"category_confidence"`
	SeverityConfidence  float64 `json:"severity_confidence"`
	TreatmentConfidence float64 `json:"treatment_confidence"`
	SkillsConfidence    float64 `json:"skills_confidence"`

	RequiredSkills []string `json:"required_skills,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`

	Provenance Provenance `json:"provenance"`
}

// OverallConfidence fuses the per-dimension confidences with fixed weights:
// 0.40 category + 0.25 severity + 0.20 treatment + 0.15 skills.
func (r ClassificationResult) OverallConfidence() float64 {
	return categoryWeight*r.CategoryConfidence +
		severityWeight*r.SeverityConfidence +
		treatmentWeight*r.TreatmentConfidence +
		skillsWeight*r.SkillsConfidence
}
