package search

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/narraview/internal/models"
)

const (
	defaultFuzziness = 2
	deletePageSize   = 500
)

// eventDoc is the indexed projection of one event.
type eventDoc struct {
	DatasetID string   `json:"dataset_id"`
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	ShortText string   `json:"short_text"`
	LeadTitle string   `json:"lead_title"`
	MainTopic string   `json:"main_topic"`
	SubTopics []string `json:"sub_topics"`
	Entities  []string `json:"entities"`
}

// BleveIndex implements EventIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, eventMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryIndex creates an index that lives only in memory.
func NewMemoryIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(eventMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func eventMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so names match as written.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	for _, field := range []string{"text", "short_text", "lead_title", "main_topic", "sub_topics", "entities"} {
		docMapping.AddFieldMappingsAt(field, textFieldMapping)
	}
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	keywordFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("dataset_id", keywordFieldMapping)
	indexFieldMapping := bleve.NewNumericFieldMapping()
	indexFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("index", indexFieldMapping)

	im.AddDocumentMapping("event", docMapping)
	im.DefaultType = "event"
	im.DefaultMapping = docMapping
	return im
}

// DocID returns the index key of one event.
func DocID(datasetID string, index int) string {
	return datasetID + "#" + strconv.Itoa(index)
}

func parseDocID(id string) (int, bool) {
	i := strings.LastIndex(id, "#")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IndexDataset deletes the dataset's previous documents, then indexes every event in one batch.
func (b *BleveIndex) IndexDataset(ctx context.Context, ds *models.Dataset) error {
	if err := b.DeleteDataset(ctx, ds.ID); err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, ev := range ds.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(DocID(ds.ID, ev.Index), toDoc(ds.ID, ev)); err != nil {
			return fmt.Errorf("failed to batch event %d: %w", ev.Index, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to index dataset %s: %w", ds.ID, err)
	}
	return nil
}

func toDoc(datasetID string, ev models.Event) eventDoc {
	doc := eventDoc{
		DatasetID: datasetID,
		Index:     ev.Index,
		Text:      ev.Text,
		ShortText: ev.ShortText,
		LeadTitle: ev.LeadTitle,
		MainTopic: ev.Topic.MainTopic,
		SubTopics: ev.Topic.SubTopic,
	}
	for _, ent := range ev.UniqueEntities() {
		if ent.Name != "" {
			doc.Entities = append(doc.Entities, ent.Name)
		}
	}
	return doc
}

// DeleteDataset removes every document belonging to datasetID.
func (b *BleveIndex) DeleteDataset(ctx context.Context, datasetID string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := bleve.NewSearchRequest(datasetQuery(datasetID))
		req.Size = deletePageSize
		results, err := b.index.Search(req)
		if err != nil {
			return fmt.Errorf("Bleve search failed: %w", err)
		}
		if len(results.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("failed to delete dataset %s: %w", datasetID, err)
		}
	}
}

func datasetQuery(datasetID string) blevequery.Query {
	tq := bleve.NewTermQuery(datasetID)
	tq.SetField("dataset_id")
	return tq
}

// Search runs a match query restricted to one dataset and returns up to limit hits.
// When fuzzy is true every query term matches within an edit distance of two.
func (b *BleveIndex) Search(ctx context.Context, datasetID, query string, limit int, fuzzy bool) ([]Hit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []Hit{}, nil
	}
	var q blevequery.Query
	if fuzzy {
		q = buildFuzzyQuery(query, defaultFuzziness)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(datasetQuery(datasetID), q))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		idx, ok := parseDocID(hit.ID)
		if !ok {
			continue
		}
		out = append(out, Hit{EventIndex: idx, Score: hit.Score})
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries, one per query term.
func buildFuzzyQuery(queryStr string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 1 {
		fq := bleve.NewFuzzyQuery(terms[0])
		fq.SetFuzziness(fuzziness)
		return fq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the total number of indexed events across datasets.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
