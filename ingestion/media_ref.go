package ingestion

import (
	"fmt"
	"mime"
	"strings"
	"time"
	"unicode"

	"github.com/Luismorlan/mediamux/clients"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/utils"
)

// mediaRef is the file selected from a message, with everything ingestion
// records about it.
type mediaRef struct {
	Type         model.MediaType
	FileId       string
	FileUniqueId string
	MimeType     string
	FileSize     int64
	Width        int
	Height       int
	Duration     int
	OriginalName string
}

// selectMedia picks the representative file of a message. Telegram orders
// photo sizes ascending, the last one is the largest. Returns nil for
// messages without media.
func selectMedia(msg *clients.TelegramMessage) *mediaRef {
	switch {
	case len(msg.Photo) > 0:
		p := msg.Photo[len(msg.Photo)-1]
		return &mediaRef{
			Type:         model.MediaTypeImage,
			FileId:       p.FileId,
			FileUniqueId: p.FileUniqueId,
			FileSize:     p.FileSize,
			Width:        p.Width,
			Height:       p.Height,
		}
	case msg.Video != nil:
		v := msg.Video
		return &mediaRef{
			Type:         model.MediaTypeVideo,
			FileId:       v.FileId,
			FileUniqueId: v.FileUniqueId,
			MimeType:     v.MimeType,
			FileSize:     v.FileSize,
			Width:        v.Width,
			Height:       v.Height,
			Duration:     v.Duration,
			OriginalName: v.FileName,
		}
	case msg.Document != nil:
		d := msg.Document
		return &mediaRef{
			Type:         model.MediaTypeDocument,
			FileId:       d.FileId,
			FileUniqueId: d.FileUniqueId,
			MimeType:     d.MimeType,
			FileSize:     d.FileSize,
			OriginalName: d.FileName,
		}
	case msg.Animation != nil:
		a := msg.Animation
		return &mediaRef{
			Type:         model.MediaTypeAnimation,
			FileId:       a.FileId,
			FileUniqueId: a.FileUniqueId,
			MimeType:     a.MimeType,
			FileSize:     a.FileSize,
			Width:        a.Width,
			Height:       a.Height,
			Duration:     a.Duration,
			OriginalName: a.FileName,
		}
	}
	return nil
}

func (r *mediaRef) metadata(msg *clients.TelegramMessage) model.MediaMetadata {
	m := model.IngestionMetadata{
		FileId:       r.FileId,
		FileUniqueId: r.FileUniqueId,
		MessageId:    msg.MessageId,
		MediaGroupId: msg.MediaGroupId,
		MimeType:     r.MimeType,
		FileSize:     r.FileSize,
		Width:        r.Width,
		Height:       r.Height,
		Duration:     r.Duration,
		OriginalName: r.OriginalName,
		ForwardDate:  msg.ForwardDate,
	}
	if msg.ForwardFromChat != nil {
		m.ForwardFromChatId = msg.ForwardFromChat.Id
		m.ForwardFromName = msg.ForwardFromChat.Title
	} else if msg.ForwardFrom != nil {
		m.ForwardFromName = fullName(msg.ForwardFrom.FirstName, msg.ForwardFrom.LastName)
	}
	return model.NewIngestionMetadata(m)
}

var defaultExtensions = map[model.MediaType]string{
	model.MediaTypeImage:     ".jpg",
	model.MediaTypeVideo:     ".mp4",
	model.MediaTypeDocument:  ".bin",
	model.MediaTypeAnimation: ".mp4",
}

// mime.ExtensionsByType returns every registered alias in lexical order, the
// usual extension is preferred for common types.
var preferredExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
	"text/plain":      ".txt",
}

// sanitizeFileName drops non-ASCII and whitespace characters, telegram file
// names are user supplied and go into object keys.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
}

func validExtension(ext string) bool {
	return len(ext) > 1 && len(ext) <= 10
}

// fileExtension derives the stored extension, with the dot. Sources in order:
// original file name, telegram file path, mime type, per type default.
func fileExtension(originalName, filePath, mimeType string, mediaType model.MediaType) string {
	if ext := utils.GetUrlExtNameWithDot(sanitizeFileName(originalName)); validExtension(ext) {
		return ext
	}
	if ext := utils.GetUrlExtNameWithDot(filePath); validExtension(ext) {
		return ext
	}
	if mimeType != "" {
		base := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
		if ext, ok := preferredExtensions[base]; ok {
			return ext
		}
		if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	if ext, ok := defaultExtensions[mediaType]; ok {
		return ext
	}
	return ".bin"
}

// objectName is {file_unique_id}_{unix_millis}{ext}.
func objectName(fileUniqueId string, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%d%s", sanitizeFileName(fileUniqueId), now.UnixNano()/int64(time.Millisecond), ext)
}

// contentType prefers the type declared by telegram, then the one implied by
// the extension, then whatever the file server answered.
func contentType(declared, ext, downloaded string) string {
	if declared != "" {
		return declared
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if downloaded != "" {
		return downloaded
	}
	return "application/octet-stream"
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
