// internal/clients/catalog_client.go
package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"libracheckout/internal/catalog"
)

type CatalogClient struct {
	baseURL string
	http    *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// GetItemByBarcode looks up a single item by its barcode.
func (c *CatalogClient) GetItemByBarcode(ctx context.Context, barcode string) (*catalog.Item, error) {
	var page struct {
		Items        []catalog.Item `json:"items"`
		TotalRecords int            `json:"totalRecords"`
	}
	u := fmt.Sprintf("%s/items?barcode=%s", c.baseURL, url.QueryEscape(barcode))
	if err := doJSON(ctx, c.http, http.MethodGet, u, nil, &page); err != nil {
		return nil, fmt.Errorf("get item %q: %w", barcode, err)
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("get item %q: %w", barcode, ErrNotFound)
	}
	return &page.Items[0], nil
}

// UpdateItemStatus sets the item's circulation status.
func (c *CatalogClient) UpdateItemStatus(ctx context.Context, id uuid.UUID, status string) error {
	body := struct {
		Status catalog.Status `json:"status"`
	}{Status: catalog.Status{Name: status}}

	u := fmt.Sprintf("%s/items/%s", c.baseURL, id)
	if err := doJSON(ctx, c.http, http.MethodPatch, u, body, nil); err != nil {
		return fmt.Errorf("update item %s status: %w", id, err)
	}
	return nil
}
