package output

import (
	"fmt"
	"strings"
)

// SessionView is the render model for session status.
type SessionView struct {
	State    string `json:"state"`
	Provider string `json:"provider,omitempty"`
	Address  string `json:"address,omitempty"`
}

func (v SessionView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "State:    %s", v.State)
	if v.Provider != "" {
		fmt.Fprintf(&sb, "\nProvider: %s", v.Provider)
	}
	if v.Address != "" {
		fmt.Fprintf(&sb, "\nAddress:  %s", v.Address)
	}
	return sb.String()
}

// ProviderListView is the render model for the provider listing.
type ProviderListView struct {
	Providers []ProviderView `json:"providers"`
	Selected  string         `json:"selected,omitempty"`
}

// ProviderView is one registered signing provider.
type ProviderView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (v ProviderListView) String() string {
	if len(v.Providers) == 0 {
		return "No signing providers registered."
	}
	var sb strings.Builder
	for i, p := range v.Providers {
		if i > 0 {
			sb.WriteByte('\n')
		}
		marker := " "
		if p.Name == v.Selected {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s", marker, p.Name)
		if p.Description != "" {
			fmt.Fprintf(&sb, "  (%s)", p.Description)
		}
	}
	return sb.String()
}

// PublicationView is the render model for a completed publication.
type PublicationView struct {
	MediaTxID     string `json:"media_tx_id"`
	ThumbnailTxID string `json:"thumbnail_tx_id"`
	MetadataTxID  string `json:"metadata_tx_id"`
}

func (v PublicationView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Media:     %s\n", v.MediaTxID)
	fmt.Fprintf(&sb, "Thumbnail: %s\n", v.ThumbnailTxID)
	fmt.Fprintf(&sb, "Metadata:  %s", v.MetadataTxID)
	return sb.String()
}

// StatusView is the render model for a transaction status query.
type StatusView struct {
	TxID   string `json:"tx_id"`
	Status string `json:"status"`
}

func (v StatusView) String() string {
	return fmt.Sprintf("%s  %s", v.TxID, v.Status)
}
