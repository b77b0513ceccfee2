package kb

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

// Bounded score boosts applied on top of the Jaccard base.
const (
	keywordBoostPerToken = 0.1
	keywordBoostCap      = 0.5
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// accentFolder strips combining marks after NFD decomposition, so "problème"
// and "probleme" normalize identically.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases and accent-folds text for lexical matching.
func Normalize(text string) string {
	folded, _, err := transform.String(accentFolder, strings.ToLower(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

// Tokenize splits normalized text into alphanumeric tokens.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(Normalize(text), -1)
}

// synonymTable expands query tokens with domain equivalents. Keys and values
// are pre-normalized (lowercase, accent-folded).
var synonymTable = map[string][]string{
	"connexion":    {"login", "authentification", "connecter"},
	"login":        {"connexion", "authentification"},
	"mdp":          {"passe", "motdepasse"},
	"passe":        {"mdp", "motdepasse"},
	"facture":      {"facturation", "paiement", "abonnement"},
	"paiement":     {"facture", "facturation", "carte"},
	"remboursement": {"facture", "paiement", "avoir"},
	"erreur":       {"bug", "probleme", "panne", "echec"},
	"bug":          {"erreur", "probleme", "anomalie"},
	"panne":        {"erreur", "indisponible", "incident"},
	"lent":         {"lenteur", "performance", "ralentissement"},
	"lenteur":      {"lent", "performance"},
	"export":       {"exporter", "telechargement", "pdf", "csv"},
	"api":          {"integration", "webhook", "endpoint"},
	"compte":       {"profil", "utilisateur"},
}

// phraseBoosts adds a fixed bonus when a normalized phrase from the query
// appears verbatim in the chunk.
var phraseBoosts = map[string]float64{
	"mot de passe":     0.15,
	"carte bancaire":   0.15,
	"erreur 500":       0.2,
	"double facturation": 0.2,
}

// ExpandQuery returns the deduplicated union of query tokens and their
// synonyms.
func ExpandQuery(query string) []string {
	tokens := Tokenize(query)
	seen := make(map[string]struct{}, len(tokens)*2)
	var out []string
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, tok := range tokens {
		add(tok)
		for _, syn := range synonymTable[tok] {
			add(syn)
		}
	}
	return out
}

// LexicalSearch scores every chunk by Jaccard similarity between the expanded
// query token set and the chunk token set, plus a bounded keyword-presence
// boost and phrase-specific boosts. It is the sole retrieval path in
// lightweight deployments and the fallback when the embedding capability is
// unavailable.
func LexicalSearch(chunks []Chunk, query string, topK int) []model.RetrievedChunk {
	if topK <= 0 {
		topK = 5
	}
	expanded := ExpandQuery(query)
	if len(expanded) == 0 || len(chunks) == 0 {
		return nil
	}
	querySet := make(map[string]struct{}, len(expanded))
	for _, tok := range expanded {
		querySet[tok] = struct{}{}
	}
	normQuery := Normalize(query)

	type hit struct {
		order int
		score float64
	}
	var hits []hit
	for i, chunk := range chunks {
		chunkTokens := Tokenize(chunk.Text)
		if len(chunkTokens) == 0 {
			continue
		}
		chunkSet := make(map[string]struct{}, len(chunkTokens))
		for _, tok := range chunkTokens {
			chunkSet[tok] = struct{}{}
		}

		matched := 0
		for tok := range querySet {
			if _, ok := chunkSet[tok]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		union := len(querySet) + len(chunkSet) - matched
		score := float64(matched) / float64(union)

		boost := keywordBoostPerToken * float64(matched)
		if boost > keywordBoostCap {
			boost = keywordBoostCap
		}
		score += boost

		normChunk := Normalize(chunk.Text)
		for phrase, bonus := range phraseBoosts {
			if strings.Contains(normQuery, phrase) && strings.Contains(normChunk, phrase) {
				score += bonus
			}
		}

		if score > 1 {
			score = 1
		}
		hits = append(hits, hit{order: i, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	results := make([]model.RetrievedChunk, len(hits))
	for rank, h := range hits {
		results[rank] = toRetrieved(chunks[h.order], h.score, rank)
	}
	return results
}
