package identify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billyagent/dialogue-service/internal/services/identify"
)

func TestExtract_CPF(t *testing.T) {
	result := identify.Extract("meu cpf é 12345678901")

	assert.Equal(t, "12345678901", result.TaxID)
	assert.Empty(t, result.PolicyNumber)
	assert.False(t, result.Empty())
}

func TestExtract_CNPJ(t *testing.T) {
	result := identify.Extract("cnpj 12345678000190")

	assert.Equal(t, "12345678000190", result.TaxID)
	assert.Empty(t, result.PolicyNumber)
}

func TestExtract_PolicyNumber(t *testing.T) {
	result := identify.Extract("apólice 123456789")

	assert.Empty(t, result.TaxID)
	assert.Equal(t, "123456789", result.PolicyNumber)
}

func TestExtract_BothTokens(t *testing.T) {
	result := identify.Extract("12345678901 123456789")

	assert.Equal(t, "12345678901", result.TaxID)
	assert.Equal(t, "123456789", result.PolicyNumber)
}

func TestExtract_TaxIDNotDoubleCountedAsPolicy(t *testing.T) {
	// An 11-digit run is a CPF, never also a policy number.
	result := identify.Extract("12345678901")

	assert.Equal(t, "12345678901", result.TaxID)
	assert.Empty(t, result.PolicyNumber)
}

func TestExtract_NoTokens(t *testing.T) {
	tests := []string{
		"olá, bom dia",
		"12345",            // too short for anything
		"abc123456789def",  // no word boundary
		"",
	}

	for _, text := range tests {
		result := identify.Extract(text)
		assert.True(t, result.Empty(), "expected no extraction for %q", text)
	}
}

func TestExtract_DigitsInsideSentence(t *testing.T) {
	result := identify.Extract("quero pagar a apólice 987654321, por favor")

	assert.Equal(t, "987654321", result.PolicyNumber)
}

func TestHasIdentification(t *testing.T) {
	assert.True(t, identify.HasIdentification("cpf 12345678901"))
	assert.True(t, identify.HasIdentification("123456"))
	assert.False(t, identify.HasIdentification("quero falar sobre minha apólice"))
}
