package service

import (
	"strings"
	"unicode"

	"github.com/sagelearn/sagefeed/internal/domain"
	"github.com/sagelearn/sagefeed/internal/extract"
)

// ChunkConfig controls how extracted page text is split into chunks.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: domain.MaxChunkContentChars,
		MinChars: 400,
		Overlap:  200,
	}
}

// pageChunk is one chunk draft before its embedding has been computed.
type pageChunk struct {
	Content string
	Page    int
}

// chunkPages splits extracted pages into bounded chunks, each carrying the
// 1-based page number it originated from. Whitespace-only pages yield no
// chunks; an empty document yields an empty sequence, not an error.
func chunkPages(pages []extract.Page, cfg ChunkConfig) []pageChunk {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	var chunks []pageChunk
	for _, page := range pages {
		for _, content := range chunkText(page.Text, cfg) {
			chunks = append(chunks, pageChunk{Content: content, Page: page.Number})
		}
	}
	return chunks
}

// chunkText splits normalized text into chunks of at most cfg.MaxChars runes,
// preferring paragraph breaks, then sentence ends, then any whitespace over a
// mid-word hard split.
func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			end = findBoundary(runes, minCut, end)
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}

// findBoundary picks the best cut point in (minCut, end]: a paragraph break
// beats a sentence end, a sentence end beats any whitespace, and a hard split
// at end is the fallback when no boundary exists within the budget.
func findBoundary(runes []rune, minCut, end int) int {
	sentenceCut := 0
	spaceCut := 0
	for i := end; i > minCut; i-- {
		prev := runes[i-1]
		if prev == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
		if sentenceCut == 0 && unicode.IsSpace(prev) && i >= 2 && isSentenceEnd(runes[i-2]) {
			sentenceCut = i
		}
		if spaceCut == 0 && unicode.IsSpace(prev) {
			spaceCut = i
		}
	}
	if sentenceCut > 0 {
		return sentenceCut
	}
	if spaceCut > 0 {
		return spaceCut
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
