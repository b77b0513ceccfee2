package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

func rec(id, ticketID string, category model.Category, reason, context string) model.EscalationRecord {
	return model.EscalationRecord{ID: id, TicketID: ticketID, Category: category, Reason: reason, Context: context}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	t.Parallel()

	report := Analyze(nil)
	assert.Zero(t, report.TotalEscalations)
	assert.Empty(t, report.Patterns)
	assert.Empty(t, report.Findings)
	assert.Empty(t, report.Recommendations)
}

func TestAnalyzeFlagsCategoryPattern(t *testing.T) {
	t.Parallel()

	records := []model.EscalationRecord{
		rec("e1", "t1", model.CategoryFacturation, "negative_tone", "client mécontent"),
		rec("e2", "t2", model.CategoryFacturation, "negative_tone", "client mécontent"),
		rec("e3", "t3", model.CategoryFacturation, "sensitive_data", "carte masquée"),
		rec("e4", "t4", model.CategoryTechnique, "negative_tone", "client mécontent"),
	}

	report := Analyze(records)
	assert.Equal(t, 4, report.TotalEscalations)
	assert.Equal(t, 3, report.ByCategory[model.CategoryFacturation])
	require.Len(t, report.Patterns, 1)
	assert.Equal(t, model.CategoryFacturation, report.Patterns[0])
	require.NotEmpty(t, report.Recommendations)
}

func TestAnalyzeDiagnosesGapsAndHallucinations(t *testing.T) {
	t.Parallel()

	records := []model.EscalationRecord{
		rec("e1", "t1", model.CategoryTechnique, "low_confidence", "aucune évidence KB"),
		rec("e2", "t2", model.CategoryAutre, "attempts_exhausted", "réponse incorrecte selon le client"),
		rec("e3", "t3", model.CategoryFacturation, "sensitive_data", "carte bancaire détectée"),
	}

	report := Analyze(records)
	require.Len(t, report.Findings, 2)

	kinds := map[string]string{}
	for _, f := range report.Findings {
		kinds[f.EscalationID] = f.Kind
	}
	assert.Equal(t, "gap", kinds["e1"])
	assert.Equal(t, "hallucination", kinds["e2"])

	require.Len(t, report.Recommendations, 2)
}

func TestAnalyzeBelowPatternThreshold(t *testing.T) {
	t.Parallel()

	records := []model.EscalationRecord{
		rec("e1", "t1", model.CategoryTechnique, "negative_tone", "ton agressif"),
		rec("e2", "t2", model.CategoryTechnique, "negative_tone", "ton agressif"),
	}

	report := Analyze(records)
	assert.Empty(t, report.Patterns)
}
