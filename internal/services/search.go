package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/models"
)

const ProductIndexName = "products"

var ErrSearchUnavailable = errors.New("search index not configured")

// productDoc is what we store in Elasticsearch; prices stay in SQL.
type productDoc struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  uint   `json:"category_id"`
}

// ProductIndex mirrors product names into Elasticsearch for substring
// search. A nil client turns every call into ErrSearchUnavailable.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewProductIndex(client *elasticsearch.Client) *ProductIndex {
	return &ProductIndex{client: client, index: ProductIndexName}
}

func (x *ProductIndex) Enabled() bool {
	return x != nil && x.client != nil
}

func (x *ProductIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	if !x.Enabled() {
		return ErrSearchUnavailable
	}

	data, err := json.Marshal(productDoc{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: strconv.FormatUint(uint64(p.ID), 10),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.String())
	}
	return nil
}

// Reindex pushes every product and reports how many were accepted.
func (x *ProductIndex) Reindex(ctx context.Context, products []models.Product) (int, error) {
	if !x.Enabled() {
		return 0, ErrSearchUnavailable
	}
	n := 0
	for i := range products {
		if err := x.IndexProduct(ctx, &products[i]); err != nil {
			log.Warn().Err(err).Uint("product_id", products[i].ID).Msg("⚠️ reindex skipped product")
			continue
		}
		n++
	}
	return n, nil
}

// SearchIDs returns the ids of products whose name contains query, ignoring
// case.
func (x *ProductIndex) SearchIDs(ctx context.Context, query string) ([]uint, error) {
	if !x.Enabled() {
		return nil, ErrSearchUnavailable
	}

	var buf bytes.Buffer
	body := map[string]any{
		"size":    1000,
		"_source": []string{"id"},
		"query": map[string]any{
			"wildcard": map[string]any{
				"name.keyword": map[string]any{
					"value":            "*" + escapeWildcard(query) + "*",
					"case_insensitive": true,
				},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := x.client.Search(
		x.client.Search.WithContext(ctx),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search products: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source productDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
