package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ModelInfo is one model known to an ollama server.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ListModels returns the models installed on the ollama server at host.
func ListModels(ctx context.Context, httpClient *http.Client, host string) ([]ModelInfo, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(host, "/")+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, "ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama /api/tags returned %d", ErrModelUnavailable, resp.StatusCode)
	}
	var body struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding model list: %v", ErrMalformedResponse, err)
	}
	sort.Slice(body.Models, func(i, j int) bool { return body.Models[i].Name < body.Models[j].Name })
	return body.Models, nil
}

// MissingModels returns the wanted models not present in installed. A wanted
// name without a tag matches any tag of that model.
func MissingModels(installed []ModelInfo, wanted ...string) []string {
	have := make(map[string]bool, len(installed)*2)
	for _, m := range installed {
		have[m.Name] = true
		if base, _, ok := strings.Cut(m.Name, ":"); ok {
			have[base] = true
		}
	}
	seen := make(map[string]bool)
	var missing []string
	for _, w := range wanted {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		if !have[w] {
			missing = append(missing, w)
		}
	}
	return missing
}
