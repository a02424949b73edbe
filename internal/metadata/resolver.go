package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentscan/internal/model"
)

// ProfileStore is the slice of storage the resolver writes through.
type ProfileStore interface {
	ApplyAgentProfile(ctx context.Context, chainID, agentID int64, profile model.AgentProfile) error
}

// Resolver fetches agent URI documents and merges them into agent rows.
// It is invoked off the indexing path; a failed resolution leaves the
// agent row as the events built it.
type Resolver struct {
	store       ProfileStore
	client      *http.Client
	ipfsGateway string
	maxBody     int64
}

// NewResolver builds a Resolver. timeout bounds a whole fetch, gateway
// is the HTTP base used for ipfs:// URIs.
func NewResolver(store ProfileStore, timeout time.Duration, gateway string) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if gateway == "" {
		gateway = "https://ipfs.io/ipfs/"
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return &Resolver{
		store:       store,
		client:      &http.Client{Timeout: timeout},
		ipfsGateway: gateway,
		maxBody:     1 << 20,
	}
}

// document is the subset of an agent URI document the indexer keeps.
type document struct {
	Name         *string               `json:"name"`
	Description  *string               `json:"description"`
	Image        *string               `json:"image"`
	Categories   []string              `json:"categories"`
	X402Support  *bool                 `json:"x402_support"`
	Endpoints    []model.AgentEndpoint `json:"endpoints"`
	Capabilities []string              `json:"capabilities"`
}

// Resolve fetches the document behind uri and merges it into the agent
// row. Supported schemes are data:, ipfs://, http:// and https://.
func (r *Resolver) Resolve(ctx context.Context, chainID, agentID int64, uri string) error {
	raw, err := r.fetch(ctx, uri)
	if err != nil {
		return err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse agent document: %w", err)
	}

	profile := model.AgentProfile{
		Name:         doc.Name,
		Description:  doc.Description,
		Image:        doc.Image,
		Categories:   doc.Categories,
		X402Support:  doc.X402Support,
		Endpoints:    doc.Endpoints,
		Capabilities: doc.Capabilities,
	}
	return r.store.ApplyAgentProfile(ctx, chainID, agentID, profile)
}

func (r *Resolver) fetch(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		return decodeDataURI(uri)
	case strings.HasPrefix(uri, "ipfs://"):
		return r.fetchHTTP(ctx, r.ipfsGateway+strings.TrimPrefix(uri, "ipfs://"))
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return r.fetchHTTP(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported uri scheme: %s", uri)
	}
}

func (r *Resolver) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, r.maxBody))
}

// decodeDataURI handles inline JSON documents, base64 or URL encoded.
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data uri")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]

	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data uri: %w", err)
		}
		return decoded, nil
	}
	return []byte(payload), nil
}
