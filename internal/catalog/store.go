package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

type Review struct {
	ID      string    `json:"id"`
	User    string    `json:"user"`
	Rating  float64   `json:"rating"`
	Comment string    `json:"comment"`
	Images  []string  `json:"images"`
	Date    time.Time `json:"date"`
}

type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Stock    int64    `json:"stock"`
	ImageURL string   `json:"imageUrl"`
	Reviews  []Review `json:"reviews"`
}

// Document is the whole persisted catalog. It is always loaded and flushed as one unit.
type Document struct {
	Products []Product `json:"products"`
}

// Store is the durable home of the Document.
//
// Load on a backend that holds no document yet seeds it and persists the seed
// before returning. Flush replaces the whole document; readers never observe a
// partially written one.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Flush(ctx context.Context, doc Document) error
	Ping(ctx context.Context) error
}

// SeedFunc builds the document written to an uninitialized store.
type SeedFunc func() Document

// DefaultSeed returns the two sample products a fresh catalog starts with.
func DefaultSeed(newID IDGenerator) SeedFunc {
	return func() Document {
		return Document{Products: []Product{
			{ID: newID(), Name: "Classic White Shirt", Price: 1499, Stock: 20, ImageURL: "", Reviews: []Review{}},
			{ID: newID(), Name: "Silk Scarf", Price: 799, Stock: 15, ImageURL: "", Reviews: []Review{}},
		}}
	}
}

type documentWire struct {
	Products *[]Product `json:"products"`
}

// decodeDocument reports ok=false when raw holds no document yet: no bytes,
// JSON null, or an object without a products sequence.
func decodeDocument(raw []byte) (Document, bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, false, nil
	}

	var w documentWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Document{}, false, err
	}
	if w.Products == nil {
		return Document{}, false, nil
	}

	doc := Document{Products: *w.Products}
	normalize(&doc)
	return doc, true, nil
}

func encodeDocument(doc Document) ([]byte, error) {
	normalize(&doc)
	return json.MarshalIndent(doc, "", "  ")
}

// normalize replaces nil sequences so they serialize as [] rather than null.
func normalize(doc *Document) {
	if doc.Products == nil {
		doc.Products = []Product{}
	}
	for i := range doc.Products {
		p := &doc.Products[i]
		if p.Reviews == nil {
			p.Reviews = []Review{}
		}
		for j := range p.Reviews {
			if p.Reviews[j].Images == nil {
				p.Reviews[j].Images = []string{}
			}
		}
	}
}

func seedDocument(ctx context.Context, st Store, seed SeedFunc) (Document, error) {
	doc := Document{Products: []Product{}}
	if seed != nil {
		doc = seed()
	}
	normalize(&doc)

	if err := st.Flush(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
