//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"

	"MiniCatalog/internal/catalog"
	"MiniCatalog/pkg/catalogclient"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:4000")

func TestSystem_E2E_CatalogSurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var products []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/api/products", nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected seeded products")
	}

	c := catalogclient.New(baseURL)
	name := fmt.Sprintf("e2e_%d_%d", time.Now().Unix(), rand.Intn(100000))
	user, comment, rating := "e2e", "nice", 4.0

	p, err := c.CreateProduct(ctx, catalog.NewProduct{Name: name, Price: 500})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	rev, err := c.AddReview(ctx, p.ID, catalog.NewReview{User: &user, Comment: &comment, Rating: &rating})
	if err != nil {
		t.Fatalf("add review: %v", err)
	}

	if os.Getenv("E2E_RESTART_CATALOG") == "1" {
		restartCatalogContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
	}

	got, err := c.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Name != name || len(got.Reviews) != 1 || got.Reviews[0].ID != rev.ID {
		t.Fatalf("unexpected product after round trip: %+v", got)
	}

	if err := c.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, err := c.GetProduct(ctx, p.ID); !errors.Is(err, catalogclient.ErrNotFound) {
		t.Fatalf("get deleted product err=%v", err)
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
