package tagsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPResolver resolves tags against an external assignment service.
// Expected response format: {"tagId":"TAG-1","itemId":"item-a"}; the service
// answers 404 for unassigned tags.
type HTTPResolver struct {
	client *resty.Client
}

// NewHTTPResolver creates a resolver talking to the assignment service at addr
func NewHTTPResolver(addr string, timeout time.Duration) *HTTPResolver {
	c := resty.New().
		SetBaseURL(addr).
		SetTimeout(timeout)
	return &HTTPResolver{client: c}
}

// ResolveItemForTag returns the bound item id, or ErrTagUnassigned on a 404
func (r *HTTPResolver) ResolveItemForTag(ctx context.Context, tagID string) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		Get("/api/tags/" + tagID + "/assignment")
	if err != nil {
		return "", fmt.Errorf("tagsvc: assignment service request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return "", ErrTagUnassigned
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("tagsvc: assignment service returned %d", resp.StatusCode())
	}

	assignment := struct {
		TagID  string `json:"tagId"`
		ItemID string `json:"itemId"`
	}{}
	if err := json.Unmarshal(resp.Body(), &assignment); err != nil {
		return "", fmt.Errorf("tagsvc: failed parsing assignment response: %w", err)
	}
	if assignment.ItemID == "" {
		return "", ErrTagUnassigned
	}
	return assignment.ItemID, nil
}
