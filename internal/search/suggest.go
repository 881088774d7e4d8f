package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hyperjump/narraview/internal/models"
)

// DefaultMaxDistance bounds the edit distance of spelling suggestions.
const DefaultMaxDistance = 2

// Suggestion is a known word close to a query term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// Vocabulary holds the words used by a dataset's events, with the number of events using each.
type Vocabulary struct {
	freq  map[string]int
	terms []string
}

// NewVocabulary collects words from event text, titles, topics and entity names.
func NewVocabulary(events []models.Event) *Vocabulary {
	v := &Vocabulary{freq: make(map[string]int)}
	for _, ev := range events {
		seen := make(map[string]struct{})
		fields := []string{ev.Text, ev.ShortText, ev.LeadTitle, ev.Topic.MainTopic}
		fields = append(fields, ev.Topic.SubTopic...)
		for _, ent := range ev.Entities {
			fields = append(fields, ent.Name)
		}
		for _, f := range fields {
			for _, w := range words(f) {
				if _, dup := seen[w]; dup {
					continue
				}
				seen[w] = struct{}{}
				v.freq[w]++
			}
		}
	}
	v.terms = make([]string, 0, len(v.freq))
	for w := range v.freq {
		v.terms = append(v.terms, w)
	}
	sort.Strings(v.terms)
	return v
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Len returns the number of distinct words.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Contains reports whether term is a known word.
func (v *Vocabulary) Contains(term string) bool {
	_, ok := v.freq[strings.ToLower(term)]
	return ok
}

// Suggest returns up to max known words within maxDistance edits of term, best first.
// Closer words rank higher; among equally close words the more frequent wins.
func (v *Vocabulary) Suggest(term string, maxDistance, max int) []Suggestion {
	term = strings.ToLower(term)
	n := len([]rune(term))
	var out []Suggestion
	for _, w := range v.terms {
		if w == term {
			continue
		}
		diff := len([]rune(w)) - n
		if diff < 0 {
			diff = -diff
		}
		if diff > maxDistance {
			continue
		}
		d := levenshtein(term, w)
		if d > maxDistance {
			continue
		}
		freq := v.freq[w]
		out = append(out, Suggestion{Term: w, Distance: d, Frequency: freq, Score: float64(freq) / float64(d+1)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Score > out[j].Score
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// Correct replaces each unknown query term with its best suggestion. ok is false when
// nothing was replaced.
func (v *Vocabulary) Correct(query string) (corrected string, ok bool) {
	terms := tokenizeQuery(query)
	for i, t := range terms {
		if v.Contains(t) {
			continue
		}
		if s := v.Suggest(t, DefaultMaxDistance, 1); len(s) > 0 {
			terms[i] = s[0].Term
			ok = true
		}
	}
	if !ok {
		return query, false
	}
	return strings.Join(terms, " "), true
}

// levenshtein is the number of single-rune insertions, deletions or substitutions
// turning a into b.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
