package summarizer

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// FrequencySummarizer is an extractive summarizer: sentences are scored by
// the normalized frequency of their content words and the best ones are
// returned in their original order. It needs no model calls, which keeps
// recaps cheap and deterministic.
type FrequencySummarizer struct {
	sentenceRe *regexp.Regexp
	wordRe     *regexp.Regexp
	stopwords  map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	stop := make(map[string]struct{}, len(defaultStopwords))
	for _, w := range defaultStopwords {
		stop[w] = struct{}{}
	}
	return &FrequencySummarizer{
		sentenceRe: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		wordRe:     regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:  stop,
	}
}

func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		return "", errors.New("maxSentences must be positive")
	}
	sentences := s.sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return "", nil
	}
	if len(sentences) <= maxSentences {
		return strings.TrimSpace(strings.Join(trimAll(sentences), " ")), nil
	}

	freq := make(map[string]float64)
	max := 0.0
	for _, sent := range sentences {
		for _, w := range s.wordRe.FindAllString(strings.ToLower(sent), -1) {
			if _, skip := s.stopwords[w]; skip {
				continue
			}
			freq[w]++
			if freq[w] > max {
				max = freq[w]
			}
		}
	}
	if max > 0 {
		for w := range freq {
			freq[w] /= max
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, sent := range sentences {
		words := s.wordRe.FindAllString(strings.ToLower(sent), -1)
		if len(words) == 0 {
			continue
		}
		sum := 0.0
		for _, w := range words {
			sum += freq[w]
		}
		ranked = append(ranked, scored{idx: i, score: sum / float64(len(words))})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if maxSentences < len(ranked) {
		ranked = ranked[:maxSentences]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].idx < ranked[j].idx })

	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, strings.TrimSpace(sentences[r.idx]))
	}
	return strings.Join(out, " "), nil
}

func trimAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

var defaultStopwords = []string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "when",
	"at", "by", "for", "with", "about", "against", "between", "into",
	"through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "once", "here", "there", "all", "any", "both", "each",
	"few", "more", "most", "other", "some", "such", "no", "nor", "not",
	"only", "own", "same", "so", "than", "too", "very", "can", "will",
	"just", "should", "now", "is", "are", "was", "were", "be", "been",
	"being", "have", "has", "had", "having", "do", "does", "did", "doing",
	"of", "it", "its", "this", "that", "these", "those", "he", "she",
	"they", "them", "his", "her", "their", "i", "you", "we", "me", "him",
	"us", "my", "your", "our", "as", "what", "which", "who", "whom",
}
