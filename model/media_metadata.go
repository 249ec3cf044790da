package model

import (
	"fmt"
	"time"
)

// MetadataKind tells which producer wrote a MediaMetadata record.
type MetadataKind string

const (
	MetadataKindIngestion  MetadataKind = "ingestion"
	MetadataKindManualEdit MetadataKind = "manual_edit"
)

// MediaMetadata is a tagged union: Kind selects which one of the payload
// pointers is set. Consumers switch on Kind instead of probing optional keys.
type MediaMetadata struct {
	Kind       MetadataKind        `json:"kind"`
	Ingestion  *IngestionMetadata  `json:"ingestion,omitempty"`
	ManualEdit *ManualEditMetadata `json:"manual_edit,omitempty"`
}

// IngestionMetadata is written by the telegram ingestion pipeline.
type IngestionMetadata struct {
	FileId       string `json:"file_id"`
	FileUniqueId string `json:"file_unique_id"`
	MessageId    int64  `json:"message_id"`
	MediaGroupId string `json:"media_group_id,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Duration     int    `json:"duration,omitempty"`
	OriginalName string `json:"original_name,omitempty"`

	ForwardFromChatId int64  `json:"forward_from_chat_id,omitempty"`
	ForwardFromName   string `json:"forward_from_name,omitempty"`
	ForwardDate       int64  `json:"forward_date,omitempty"`
}

// ManualEditMetadata is written when an operator edits a media item in the
// dashboard. Source keeps the ingestion provenance of the item, if any.
type ManualEditMetadata struct {
	EditedBy        string             `json:"edited_by"`
	EditedAt        time.Time          `json:"edited_at"`
	PreviousCaption string             `json:"previous_caption"`
	Source          *IngestionMetadata `json:"source,omitempty"`
}

func NewIngestionMetadata(m IngestionMetadata) MediaMetadata {
	return MediaMetadata{Kind: MetadataKindIngestion, Ingestion: &m}
}

func NewManualEditMetadata(m ManualEditMetadata) MediaMetadata {
	return MediaMetadata{Kind: MetadataKindManualEdit, ManualEdit: &m}
}

// Validate checks that exactly the payload matching Kind is set.
func (m MediaMetadata) Validate() error {
	switch m.Kind {
	case MetadataKindIngestion:
		if m.Ingestion == nil || m.ManualEdit != nil {
			return fmt.Errorf("metadata of kind %s must carry only an ingestion payload", m.Kind)
		}
	case MetadataKindManualEdit:
		if m.ManualEdit == nil || m.Ingestion != nil {
			return fmt.Errorf("metadata of kind %s must carry only a manual edit payload", m.Kind)
		}
	case "":
		if m.Ingestion != nil || m.ManualEdit != nil {
			return fmt.Errorf("metadata payload without kind")
		}
	default:
		return fmt.Errorf("unknown metadata kind: %s", m.Kind)
	}
	return nil
}

// SourceInfo returns the ingestion record behind this metadata, whichever
// producer wrote it last.
func (m MediaMetadata) SourceInfo() (*IngestionMetadata, bool) {
	switch m.Kind {
	case MetadataKindIngestion:
		return m.Ingestion, m.Ingestion != nil
	case MetadataKindManualEdit:
		if m.ManualEdit != nil && m.ManualEdit.Source != nil {
			return m.ManualEdit.Source, true
		}
	}
	return nil, false
}
