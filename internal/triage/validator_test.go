package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalil-hamidani/DOXA-intelligent-ticketing-system-sub000/internal/model"
)

func TestValidateAcceptsWellFormedTicket(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{
		Subject:     "Problème de connexion",
		Description: "Impossible de me connecter depuis ce matin, le portail affiche une erreur.",
	}

	result := Validate(ticket)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reasons)
}

func TestValidateRejectsShortDescription(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{
		Subject:     "Aide",
		Description: "0123456789", // 10 characters
	}

	result := Validate(ticket)
	require.False(t, result.Valid)
	assert.Contains(t, result.Reasons[0], "description trop courte")
}

func TestValidateRejectsEmptySubject(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{
		Subject:     "   ",
		Description: "Le rapport mensuel ne se génère plus depuis la mise à jour.",
	}

	result := Validate(ticket)
	require.False(t, result.Valid)
	assert.Contains(t, result.Reasons, "sujet vide")
}

func TestValidateRequiresMeaningfulTokens(t *testing.T) {
	t.Parallel()

	// Long enough but only two distinct tokens longer than two characters.
	ticket := &model.Ticket{
		Subject:     "Souci",
		Description: "aide aide aide aide bug bug ok ok ok",
	}

	result := Validate(ticket)
	require.False(t, result.Valid)
	assert.Contains(t, result.Reasons[0], "mots significatifs")
}

func TestValidateIsIdempotent(t *testing.T) {
	t.Parallel()

	ticket := &model.Ticket{Subject: "", Description: "court"}
	first := Validate(ticket)
	second := Validate(ticket)
	assert.Equal(t, first, second)
}
