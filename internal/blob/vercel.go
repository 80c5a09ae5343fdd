package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// VercelStore uploads objects to Vercel Blob with public access
type VercelStore struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

func NewVercelStore(apiURL, token string, httpClient *http.Client) *VercelStore {
	return &VercelStore{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type putResponse struct {
	URL string `json:"url"`
}

func (s *VercelStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.apiURL+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build blob request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("x-api-version", "7")
	req.Header.Set("x-vercel-blob-access", "public")
	req.Header.Set("x-add-random-suffix", "0")
	if contentType != "" {
		req.Header.Set("x-content-type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blob provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var body putResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode blob response: %w", err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("blob provider returned no url")
	}

	return body.URL, nil
}
