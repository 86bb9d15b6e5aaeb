// internal/clients/membership_client.go
package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"libracheckout/internal/membership"
)

type MembershipClient struct {
	baseURL string
	http    *http.Client
}

func NewMembershipClient(baseURL string) *MembershipClient {
	return &MembershipClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// GetPatronByBarcode looks up a patron, including manual blocks, by barcode.
func (c *MembershipClient) GetPatronByBarcode(ctx context.Context, barcode string) (*membership.Patron, error) {
	var page struct {
		Patrons []membership.Patron `json:"patrons"`
	}
	u := fmt.Sprintf("%s/patrons?barcode=%s", c.baseURL, url.QueryEscape(barcode))
	if err := doJSON(ctx, c.http, http.MethodGet, u, nil, &page); err != nil {
		return nil, fmt.Errorf("get patron %q: %w", barcode, err)
	}
	if len(page.Patrons) == 0 {
		return nil, fmt.Errorf("get patron %q: %w", barcode, ErrNotFound)
	}
	return &page.Patrons[0], nil
}
