package model

import (
	"encoding/json"
	"time"
)

// Agent is one registered agent identity on one chain.
type Agent struct {
	AgentID        int64
	ChainID        int64
	Owner          string
	AgentURI       *string
	Name           *string
	Description    *string
	Image          *string
	Categories     []string
	X402Support    bool
	Metadata       json.RawMessage
	Active         bool
	BlockNumber    int64
	BlockTimestamp *time.Time
	TxHash         string
}

// AgentProfile carries the fields resolved from an agent URI document.
// Nil fields were absent from the document and must not overwrite
// previously stored values.
type AgentProfile struct {
	Name         *string
	Description  *string
	Image        *string
	Categories   []string
	X402Support  *bool
	Endpoints    []AgentEndpoint
	Capabilities []string
}

// AgentEndpoint is one service endpoint advertised by an agent document.
type AgentEndpoint struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	Version  string `json:"version,omitempty"`
}

// MetadataJSON renders the structured remainder of a profile document,
// stored alongside the first-class columns.
func (p AgentProfile) MetadataJSON() (json.RawMessage, error) {
	doc := struct {
		Endpoints    []AgentEndpoint `json:"endpoints,omitempty"`
		Capabilities []string        `json:"capabilities,omitempty"`
	}{
		Endpoints:    p.Endpoints,
		Capabilities: p.Capabilities,
	}
	return json.Marshal(doc)
}
