package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/outpostai/memoryflow/vectorstore"
)

// Reranker reorders a store's raw similarity results before they become
// Citations. The search engine's predicate/top-k request already ran;
// a Reranker only scores and sorts what came back.
type Reranker interface {
	Rerank(query string, results []vectorstore.SearchResult) []vectorstore.SearchResult
}

// NoopReranker returns results unchanged, in the store's own order.
type NoopReranker struct{}

func (NoopReranker) Rerank(_ string, results []vectorstore.SearchResult) []vectorstore.SearchResult {
	return results
}

// LexicalReranker blends each result's vector similarity score with a
// stemmed, fuzzy-matched lexical score against the query: tokens are
// normalized with porter2 and scored with go-edlib's Jaro-Winkler
// similarity.
type LexicalReranker struct {
	// Weight is the lexical score's share of the blended score; the
	// vector score gets 1-Weight. Zero selects 0.5.
	Weight float64
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9]+`)

func (r LexicalReranker) Rerank(query string, results []vectorstore.SearchResult) []vectorstore.SearchResult {
	weight := r.Weight
	if weight == 0 {
		weight = 0.5
	}

	queryTokens := stemTokens(query)
	reranked := make([]vectorstore.SearchResult, len(results))
	copy(reranked, results)

	scores := make(map[string]float64, len(reranked))
	for _, res := range reranked {
		lexical := lexicalSimilarity(queryTokens, stemTokens(res.Record.Text))
		blended := weight*lexical + (1-weight)*res.Score
		scores[res.Record.ID] = blended
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return scores[reranked[i].Record.ID] > scores[reranked[j].Record.ID]
	})
	for i := range reranked {
		reranked[i].Score = scores[reranked[i].Record.ID]
	}
	return reranked
}

// stemTokens lowercases, splits on non-alphanumeric runs, and stems
// every token with porter2.
func stemTokens(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, porter2.Stem(w))
	}
	return tokens
}

// lexicalSimilarity averages, over every query token, the best
// Jaro-Winkler similarity against any candidate token. Scoring runs
// post-stemming so inflected forms of the same word still match.
func lexicalSimilarity(queryTokens, candidateTokens []string) float64 {
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	var total float64
	for _, qt := range queryTokens {
		best := 0.0
		for _, ct := range candidateTokens {
			score, err := edlib.StringsSimilarity(qt, ct, edlib.JaroWinkler)
			if err == nil && float64(score) > best {
				best = float64(score)
			}
		}
		total += best
	}
	return total / float64(len(queryTokens))
}
