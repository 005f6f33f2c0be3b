package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityType(t *testing.T) {
	for _, valid := range []string{"prompt", "document", "faq"} {
		et, err := ParseEntityType(valid)
		require.NoError(t, err)
		assert.Equal(t, EntityType(valid), et)
	}
	_, err := ParseEntityType("lesson")
	assert.Error(t, err)
	_, err = ParseEntityType("")
	assert.Error(t, err)
}

func TestEntityRefString(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "prompt:"+id.String(), PromptRef(id).String())
	assert.Equal(t, "document:"+id.String(), DocumentRef(id).String())
	assert.Equal(t, "faq:"+id.String(), FAQRef(id).String())
}

func TestPromptEmbeddingInput(t *testing.T) {
	p := &Prompt{Title: "Refund policy", Content: "Refunds take 5 days."}
	assert.Equal(t, "Refund policy\n\nRefunds take 5 days.", p.EmbeddingInput())

	blankContent := &Prompt{Title: "Only title", Content: "   "}
	assert.Equal(t, "Only title", blankContent.EmbeddingInput())
}

func TestEmbeddingInputStripsMarkup(t *testing.T) {
	p := &Prompt{
		Title:   "<h1>Goal Setting</h1>",
		Content: "<p>Set <b>SMART</b> goals &amp; review them.</p>",
	}
	assert.Equal(t, "Goal Setting\n\nSet SMART goals & review them.", p.EmbeddingInput())

	f := &FAQ{Question: "What is <em>RAG</em>?", Answer: "Retrieval&nbsp;augmented generation."}
	assert.Equal(t, "What is RAG?\n\nRetrieval augmented generation.", f.EmbeddingInput())
}

func TestStripMarkupKeepsPlainText(t *testing.T) {
	assert.Equal(t, "plain prose stays as is", StripMarkup("plain prose stays as is"))
	assert.Equal(t, "first\nsecond", StripMarkup("<p>first</p>\n<p>second</p>"))
}

func TestFAQEmbeddingInput(t *testing.T) {
	f := &FAQ{Question: "How do I reset my password?", Answer: "Use the reset link."}
	assert.Equal(t, "How do I reset my password?\n\nUse the reset link.", f.EmbeddingInput())
}

func TestDocumentEmbeddingInputUsesSummary(t *testing.T) {
	d := &Document{
		Title:         "Onboarding guide",
		Description:   "Steps for new members",
		Summary:       "A short guide to onboarding.",
		ExtractedText: "full text that should be ignored",
	}
	got := d.EmbeddingInput()
	assert.Contains(t, got, "Onboarding guide")
	assert.Contains(t, got, "A short guide to onboarding.")
	assert.NotContains(t, got, "full text that should be ignored")
}

func TestDocumentEmbeddingInputFallsBackToExtractedText(t *testing.T) {
	long := strings.Repeat("x", 1500)
	d := &Document{Title: "Raw doc", ExtractedText: long}
	got := d.EmbeddingInput()
	// Fallback keeps at most the leading 1000 runes of extracted text.
	assert.Equal(t, "Raw doc\n\n"+strings.Repeat("x", 1000), got)
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("hi"))
	assert.Equal(t, 25, ApproxTokens(strings.Repeat("a", 100)))
}
