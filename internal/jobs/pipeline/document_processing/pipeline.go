package document_processing

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/ingestion/chunker"
	"github.com/loungely/knowledge-backend/internal/ingestion/extractor"
	jobrt "github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
)

// Run takes a document from uploaded bytes to a searchable, embedded chunk
// set. Extraction failure is fatal and recorded on the document row. A single
// chunk failing to embed is not fatal: that chunk is skipped and the rest of
// the document still becomes searchable.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	docID, ok := jc.EntityID()
	if !ok || docID == uuid.Nil {
		jc.Fail(fmt.Errorf("missing document id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}

	doc, err := p.docs.GetByID(dbc, docID)
	if err != nil {
		jc.Fail(fmt.Errorf("load document: %w", err))
		return nil
	}
	if doc == nil {
		jc.Fail(fmt.Errorf("document %s not found", docID))
		return nil
	}

	jc.Progress(0, 2, "Extracting text")
	text, err := p.extract(jc, doc)
	if err != nil {
		p.failExtraction(dbc, docID, err)
		jc.Fail(err)
		return nil
	}

	pieces := chunker.Split(text, chunker.DefaultChunkSize, chunker.DefaultOverlap)
	total := len(pieces) + 2

	jc.Progress(1, total, "Storing chunks")
	chunks := make([]*domain.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &domain.DocumentChunk{
			ID:         uuid.New(),
			DocumentID: docID,
			ChunkIndex: i,
			Text:       piece,
			TokenCount: domain.ApproxTokens(piece),
		})
	}
	// Reprocessing wipes the old chunk set; readers only ever see one
	// complete generation.
	if err := p.chunks.ReplaceForDocument(dbc, docID, chunks); err != nil {
		jc.Fail(fmt.Errorf("replace chunks: %w", err))
		return nil
	}
	if err := p.docs.UpdateFields(dbc, docID, map[string]interface{}{
		"extracted_text":   text,
		"processing_error": "",
	}); err != nil {
		jc.Fail(fmt.Errorf("save extracted text: %w", err))
		return nil
	}

	embedded := 0
	skipped := 0
	for i, c := range chunks {
		jc.Progress(1+i, total, fmt.Sprintf("Embedding chunk %d of %d", i+1, len(chunks)))
		vecs, err := p.ai.Embed(jc.Ctx, []string{c.Text})
		if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
			p.log.Warn("chunk embedding failed, skipping",
				"document_id", docID,
				"chunk_index", c.ChunkIndex,
				"error", err,
			)
			skipped++
			continue
		}
		err = p.chunks.UpdateFields(dbc, c.ID, map[string]interface{}{
			"embedding":       domain.EncodeVector(vecs[0]),
			"embedding_model": p.ai.EmbedModel(),
		})
		if err != nil {
			p.log.Warn("chunk embedding not saved, skipping",
				"document_id", docID,
				"chunk_index", c.ChunkIndex,
				"error", err,
			)
			skipped++
			continue
		}
		embedded++
	}

	jc.Progress(len(pieces)+1, total, "Embedding document summary")
	summary := p.summarize(jc, doc, text)
	doc.ExtractedText = text
	doc.Summary = summary

	updates := map[string]interface{}{
		"summary":      summary,
		"is_processed": true,
	}
	if input := doc.EmbeddingInput(); strings.TrimSpace(input) != "" {
		vecs, err := p.ai.Embed(jc.Ctx, []string{input})
		if err != nil || len(vecs) == 0 || len(vecs[0]) == 0 {
			p.log.Warn("document-level embedding failed", "document_id", docID, "error", err)
		} else {
			updates["embedding"] = domain.EncodeVector(vecs[0])
			updates["embedding_model"] = p.ai.EmbedModel()
		}
	}
	if err := p.docs.UpdateFields(dbc, docID, updates); err != nil {
		jc.Fail(fmt.Errorf("finalize document: %w", err))
		return nil
	}

	jc.Succeed(map[string]any{
		"document_id":     docID.String(),
		"chunks_total":    len(chunks),
		"chunks_embedded": embedded,
		"chunks_skipped":  skipped,
		"embedding_model": p.ai.EmbedModel(),
	})
	return nil
}

func (p *Pipeline) extract(jc *jobrt.Context, doc *domain.Document) (string, error) {
	if strings.TrimSpace(doc.StorageKey) == "" {
		return "", fmt.Errorf("document %s has no stored file", doc.ID)
	}
	rc, err := p.store.Download(jc.Ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	text, err := extractor.ExtractText(doc.OriginalName, doc.MimeType, data)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted from %s", doc.OriginalName)
	}
	return text, nil
}

// failExtraction records the failure on the document so the catalog shows why
// the file never became searchable.
func (p *Pipeline) failExtraction(dbc dbctx.Context, docID uuid.UUID, cause error) {
	err := p.docs.UpdateFields(dbc, docID, map[string]interface{}{
		"is_processed":     false,
		"processing_error": cause.Error(),
	})
	if err != nil {
		p.log.Error("could not record processing error", "document_id", docID, "error", err)
	}
}

// summarize asks the model for a short abstract. Failure falls back to empty;
// EmbeddingInput then uses the leading slice of extracted text instead.
func (p *Pipeline) summarize(jc *jobrt.Context, doc *domain.Document, text string) string {
	jc.Heartbeat()
	r := []rune(text)
	if len(r) > 4000 {
		r = r[:4000]
	}
	out, err := p.ai.GenerateText(jc.Ctx,
		"Summarize the document excerpt in at most three sentences. Reply with the summary only.",
		fmt.Sprintf("Title: %s\n\n%s", doc.Title, string(r)),
	)
	if err != nil {
		p.log.Warn("document summary generation failed", "document_id", doc.ID, "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}
