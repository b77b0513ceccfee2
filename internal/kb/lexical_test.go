package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFoldsAccents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "probleme", Normalize("Problème"))
	assert.Equal(t, "reinitialiser", Normalize("Réinitialiser"))
	assert.Equal(t, "deja vu", Normalize("Déjà Vu"))
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"erreur", "500", "sur", "l", "api"}, Tokenize("Erreur 500 sur l'API !"))
	assert.Empty(t, Tokenize("???"))
}

func TestExpandQueryAddsSynonyms(t *testing.T) {
	t.Parallel()

	expanded := ExpandQuery("problème de connexion")
	assert.Contains(t, expanded, "connexion")
	assert.Contains(t, expanded, "login")
	assert.Contains(t, expanded, "authentification")

	// No duplicates.
	seen := make(map[string]int)
	for _, tok := range expanded {
		seen[tok]++
	}
	for tok, n := range seen {
		assert.Equal(t, 1, n, "token %q duplicated", tok)
	}
}

func TestLexicalSearchMatchesThroughSynonyms(t *testing.T) {
	t.Parallel()

	chunks := []Chunk{
		{ID: "a", Text: "Pour tout problème de login, utilisez le lien de réinitialisation."},
		{ID: "b", Text: "Les tarifs des abonnements annuels sont dégressifs."},
	}

	results := LexicalSearch(chunks, "impossible de faire la connexion", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ID)
}

func TestLexicalSearchAccentInsensitive(t *testing.T) {
	t.Parallel()

	chunks := []Chunk{{ID: "a", Text: "Reinitialiser le mot de passe"}}
	results := LexicalSearch(chunks, "réinitialiser mot de passe", 5)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestLexicalSearchPhraseBoost(t *testing.T) {
	t.Parallel()

	chunks := []Chunk{
		{ID: "phrase", Text: "Changer votre mot de passe depuis votre profil."},
		{ID: "tokens", Text: "Un mot sur le laissez-passer de sécurité."},
	}

	results := LexicalSearch(chunks, "comment changer mon mot de passe", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "phrase", results[0].ID)
}

func TestLexicalSearchScoresBoundedToOne(t *testing.T) {
	t.Parallel()

	chunks := []Chunk{{ID: "a", Text: "erreur 500 erreur 500 erreur 500"}}
	results := LexicalSearch(chunks, "erreur 500", 5)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, results[0].SimilarityScore, 1.0)
	assert.Greater(t, results[0].SimilarityScore, 0.0)
}

func TestLexicalSearchTopK(t *testing.T) {
	t.Parallel()

	chunks := []Chunk{
		{ID: "a", Text: "facture du mois"},
		{ID: "b", Text: "facture impayée"},
		{ID: "c", Text: "facture en double"},
	}
	results := LexicalSearch(chunks, "facture", 2)
	assert.Len(t, results, 2)
	for rank, res := range results {
		assert.Equal(t, rank, res.Rank)
	}
}

func TestLexicalSearchEmptyInputs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, LexicalSearch(nil, "facture", 5))
	assert.Empty(t, LexicalSearch([]Chunk{{ID: "a", Text: "facture"}}, "", 5))
	assert.Empty(t, LexicalSearch([]Chunk{{ID: "a", Text: "facture"}}, "question sans rapport", 5))
}
