package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"bookshield/internal/domain"
)

// ChapterChunker splits raw book text on chapter headings, then groups
// sentences into chunks with overlap. Chunks never cross a chapter boundary,
// so every chunk carries the chapter number of the heading it falls under.
type ChapterChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	minChapterChars   int
	headingRe         *regexp.Regexp
	sentenceRe        *regexp.Regexp
}

func NewChapterChunker(sentencesPerChunk, overlapSentences, minChapterChars int) *ChapterChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// Overlap must leave room to advance, otherwise chunking never terminates.
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	if minChapterChars < 0 {
		minChapterChars = 0
	}
	return &ChapterChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		minChapterChars:   minChapterChars,
		// Anchored to line start so prose that mentions a chapter
		// ("back in Chapter 1, ...") does not split the text.
		headingRe:         regexp.MustCompile(`(?mi)^[ \t]*chapter[ \t]+(\d+)\b`),
		sentenceRe:        regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits the book into chapter-tagged chunks in document order.
// Chapter bodies shorter than the minimum length are dropped as table-of-
// contents noise. Text without any chapter heading is treated as chapter 1.
func (c *ChapterChunker) Chunk(bookID, text string) ([]domain.Chunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	var chunks []domain.Chunk
	// A chapter number can head more than one section (split volumes,
	// repeated headings). Positions continue across them so ids stay unique.
	nextPos := make(map[int]int)
	for _, sec := range c.splitChapters(text) {
		if len(strings.TrimSpace(sec.body)) < c.minChapterChars {
			continue
		}
		sectionChunks := c.chunkChapter(bookID, sec.number, sec.body, nextPos[sec.number])
		if len(sectionChunks) > 0 {
			nextPos[sec.number] = sectionChunks[len(sectionChunks)-1].Position + 1
		}
		chunks = append(chunks, sectionChunks...)
	}
	return chunks, nil
}

type chapterSection struct {
	number int
	body   string
}

func (c *ChapterChunker) splitChapters(text string) []chapterSection {
	locs := c.headingRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []chapterSection{{number: 1, body: text}}
	}
	sections := make([]chapterSection, 0, len(locs))
	for i, loc := range locs {
		num, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, chapterSection{number: num, body: text[loc[1]:end]})
	}
	return sections
}

func (c *ChapterChunker) chunkChapter(bookID string, chapter int, body string, startPos int) []domain.Chunk {
	sentences := c.sentenceRe.FindAllString(body, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(body)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []domain.Chunk
	i := 0
	pos := startPos
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(chapter, pos),
			BookID:   bookID,
			Chapter:  chapter,
			Position: pos,
			Text:     strings.Join(sentences[i:end], " "),
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		if i < 0 {
			i = 0
		}
		pos++
	}
	return chunks
}
