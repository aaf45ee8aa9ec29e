package catalog

import (
	"context"
	"sync"
	"time"
)

// NewProduct carries the fields accepted on create. Stock and ImageURL fall
// back to 0 and "" when absent.
type NewProduct struct {
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	Stock    *int64  `json:"stock"`
	ImageURL *string `json:"imageUrl"`
}

// ProductPatch overwrites only the fields that are present. A nil pointer
// means the caller did not send the field (or sent null); a pointer to a zero
// value is an explicit overwrite.
type ProductPatch struct {
	Name     *string `json:"name"`
	Price    *int64  `json:"price"`
	Stock    *int64  `json:"stock"`
	ImageURL *string `json:"imageUrl"`
}

type NewReview struct {
	User    *string  `json:"user"`
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
	Images  []string `json:"images"`
}

type ReviewPatch struct {
	User    *string   `json:"user"`
	Rating  *float64  `json:"rating"`
	Comment *string   `json:"comment"`
	Images  *[]string `json:"images"`
}

const (
	defaultReviewUser   = "Guest"
	defaultReviewRating = 5
)

// Repository runs every catalog operation as a load-mutate-flush cycle
// against Store.
//
// All cycles, reads included, are serialized by one mutex, so two requests in
// the same process can never interleave their load and flush and lose an
// update. Several processes sharing one backing store are not coordinated.
type Repository struct {
	Store Store
	NewID IDGenerator
	Now   func() time.Time

	mu sync.Mutex
}

func NewRepository(st Store, newID IDGenerator) *Repository {
	return &Repository{
		Store: st,
		NewID: newID,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// Init prepares the backing store at startup. A document without products is
// replaced by seed; it reports whether that happened.
func (r *Repository) Init(ctx context.Context, seed SeedFunc) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.Store.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(doc.Products) > 0 || seed == nil {
		return false, nil
	}

	if _, err := seedDocument(ctx, r.Store, seed); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.Store.Ping(ctx)
}

func (r *Repository) List(ctx context.Context) ([]Product, error) {
	var out []Product
	err := r.view(ctx, func(doc Document) error {
		out = doc.Products
		return nil
	})
	return out, err
}

func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	var out Product
	err := r.view(ctx, func(doc Document) error {
		i := indexOfProduct(doc.Products, id)
		if i < 0 {
			return ErrProductNotFound
		}
		out = doc.Products[i]
		return nil
	})
	return out, err
}

func (r *Repository) Create(ctx context.Context, in NewProduct) (Product, error) {
	p := Product{
		ID:       r.NewID(),
		Name:     in.Name,
		Price:    in.Price,
		Stock:    valueOr(in.Stock, 0),
		ImageURL: valueOr(in.ImageURL, ""),
		Reviews:  []Review{},
	}

	err := r.mutate(ctx, func(doc *Document) error {
		doc.Products = append(doc.Products, p)
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	var out Product
	err := r.mutate(ctx, func(doc *Document) error {
		i := indexOfProduct(doc.Products, id)
		if i < 0 {
			return ErrProductNotFound
		}

		p := doc.Products[i]
		p.Name = valueOr(patch.Name, p.Name)
		p.Price = valueOr(patch.Price, p.Price)
		p.Stock = valueOr(patch.Stock, p.Stock)
		p.ImageURL = valueOr(patch.ImageURL, p.ImageURL)

		doc.Products[i] = p
		out = p
		return nil
	})
	return out, err
}

// Delete removes the product and its reviews. Deleting an absent id succeeds.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.mutate(ctx, func(doc *Document) error {
		kept := doc.Products[:0]
		for _, p := range doc.Products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		doc.Products = kept
		return nil
	})
}

func (r *Repository) AddReview(ctx context.Context, productID string, in NewReview) (Review, error) {
	images := in.Images
	if images == nil {
		images = []string{}
	}

	rev := Review{
		ID:      r.NewID(),
		User:    valueOr(in.User, defaultReviewUser),
		Rating:  valueOr(in.Rating, defaultReviewRating),
		Comment: valueOr(in.Comment, ""),
		Images:  images,
		Date:    r.Now(),
	}

	err := r.mutate(ctx, func(doc *Document) error {
		i := indexOfProduct(doc.Products, productID)
		if i < 0 {
			return ErrProductNotFound
		}
		doc.Products[i].Reviews = append(doc.Products[i].Reviews, rev)
		return nil
	})
	if err != nil {
		return Review{}, err
	}
	return rev, nil
}

// UpdateReview merges patch over the stored review and always refreshes its date.
func (r *Repository) UpdateReview(ctx context.Context, productID, reviewID string, patch ReviewPatch) (Review, error) {
	var out Review
	err := r.mutate(ctx, func(doc *Document) error {
		i := indexOfProduct(doc.Products, productID)
		if i < 0 {
			return ErrProductNotFound
		}
		reviews := doc.Products[i].Reviews

		j := indexOfReview(reviews, reviewID)
		if j < 0 {
			return ErrReviewNotFound
		}

		rev := reviews[j]
		rev.User = valueOr(patch.User, rev.User)
		rev.Rating = valueOr(patch.Rating, rev.Rating)
		rev.Comment = valueOr(patch.Comment, rev.Comment)
		if patch.Images != nil {
			rev.Images = *patch.Images
			if rev.Images == nil {
				rev.Images = []string{}
			}
		}
		rev.Date = r.Now()

		reviews[j] = rev
		out = rev
		return nil
	})
	return out, err
}

// DeleteReview fails only when the owning product is missing; an absent
// review id is a no-op.
func (r *Repository) DeleteReview(ctx context.Context, productID, reviewID string) error {
	return r.mutate(ctx, func(doc *Document) error {
		i := indexOfProduct(doc.Products, productID)
		if i < 0 {
			return ErrProductNotFound
		}

		kept := doc.Products[i].Reviews[:0]
		for _, rev := range doc.Products[i].Reviews {
			if rev.ID != reviewID {
				kept = append(kept, rev)
			}
		}
		doc.Products[i].Reviews = kept
		return nil
	})
}

func (r *Repository) view(ctx context.Context, fn func(doc Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.Store.Load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// mutate flushes only when fn succeeds, so a failed operation leaves the
// stored document untouched.
func (r *Repository) mutate(ctx context.Context, fn func(doc *Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.Store.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return r.Store.Flush(ctx, doc)
}

func indexOfProduct(products []Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfReview(reviews []Review, id string) int {
	for i := range reviews {
		if reviews[i].ID == id {
			return i
		}
	}
	return -1
}

func valueOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
