package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandQueryWorkExperience(t *testing.T) {
	variants := ExpandQuery("what's my work experience")

	require.NotEmpty(t, variants)
	assert.Equal(t, "what's my work experience", variants[0])
	for _, want := range []string{
		"work experience",
		"employment history",
		"career history",
		"job roles",
		"past companies",
		"professional experience",
	} {
		assert.Contains(t, variants, want)
	}
}

func TestExpandQueryUnmatchedReturnsOriginalOnly(t *testing.T) {
	variants := ExpandQuery("how do I configure the router")
	assert.Equal(t, []string{"how do I configure the router"}, variants)
}

func TestExpandQueryPetPeeves(t *testing.T) {
	variants := ExpandQuery("What are my pet peeves?")
	assert.Contains(t, variants, "biggest annoyance")
	assert.Contains(t, variants, "things that bother me")
}

func TestExpandQueryPreferenceCues(t *testing.T) {
	variants := ExpandQuery("tell me about me")
	assert.Contains(t, variants, "biography")
	assert.Contains(t, variants, "personal preferences")
}

func TestExpandQueryDeterministicOrder(t *testing.T) {
	first := ExpandQuery("my career so far")
	second := ExpandQuery("my career so far")
	assert.Equal(t, first, second)
}

func TestExpandQueryDedupesBaseQuery(t *testing.T) {
	variants := ExpandQuery("work experience")

	assert.Equal(t, "work experience", variants[0])
	count := 0
	for _, v := range variants {
		if v == "work experience" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExpandQueryBlank(t *testing.T) {
	assert.Nil(t, ExpandQuery("   "))
}
