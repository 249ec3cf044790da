package gallery

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/model"
	"github.com/Luismorlan/mediamux/realtime"
	"github.com/Luismorlan/mediamux/utils"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const listCacheSize = 128

var ErrMediaNotFound = errors.New("media not found")

// ItemResult is the outcome of one item of a batch operation.
type ItemResult struct {
	Id    string `json:"id"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AllOk reports whether every item succeeded.
func AllOk(results []ItemResult) bool {
	for _, r := range results {
		if !r.Ok {
			return false
		}
	}
	return true
}

// Service serves the gallery queries and media mutations. List results are
// cached until the next media or channel change.
type Service struct {
	db    *gorm.DB
	store file_store.MediaFileStore
	cache *lru.Cache
	// generation is bumped by every purge, a List that raced a purge does
	// not fill the cache.
	generation uint64
}

func NewService(db *gorm.DB, store file_store.MediaFileStore) (*Service, error) {
	cache, err := lru.New(listCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, store: store, cache: cache}, nil
}

// List returns the media matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter MediaFilter) ([]MediaView, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	key := filter.cacheKey()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]MediaView), nil
	}
	generation := atomic.LoadUint64(&s.generation)

	var rows []mediaRow
	err = s.db.WithContext(ctx).
		Table("media").
		Select("media.*, channels.title AS channel_title").
		Joins("LEFT JOIN channels ON channels.chat_id = media.chat_id").
		Scopes(filter.Scopes()...).
		Order("media.created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list media")
	}

	views := make([]MediaView, 0, len(rows))
	for i := range rows {
		view, err := newMediaView(&rows[i].Media, rows[i].ChannelTitle)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	if atomic.LoadUint64(&s.generation) == generation {
		s.cache.Add(key, views)
	}
	return views, nil
}

// Invalidate drops every cached list.
func (s *Service) Invalidate() {
	atomic.AddUint64(&s.generation, 1)
	s.cache.Purge()
}

// Changed purges the cache when a media or channel changed. Register it with
// realtime.ChangeFeed.OnChange for writes issued by this process.
func (s *Service) Changed(event realtime.ChangeEvent) {
	if event.Table == "media" || event.Table == "channels" {
		s.Invalidate()
	}
}

// Decorate is the realtime.Decorator of the websocket hub. Events from other
// processes only arrive through the bus, so the cache is purged before the
// toast is handed to clients that will refetch.
func (s *Service) Decorate(event realtime.ChangeEvent) interface{} {
	s.Changed(event)
	return Notice(event)
}

func (s *Service) Get(ctx context.Context, id string) (*model.Media, error) {
	var media model.Media
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "fail to load media")
	}
	return &media, nil
}

// UpdateCaption sets a caption by hand. The metadata becomes a manual edit
// record keeping the ingestion provenance.
func (s *Service) UpdateCaption(ctx context.Context, id string, caption string, editedBy string) (*MediaView, error) {
	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	meta := media.Metadata.Data()
	source, _ := meta.SourceInfo()
	edit := model.NewManualEditMetadata(model.ManualEditMetadata{
		EditedBy:        editedBy,
		EditedAt:        time.Now(),
		PreviousCaption: media.CaptionOrEmpty(),
		Source:          source,
	})

	media.Caption = utils.StringPtr(caption)
	media.Metadata = datatypes.NewJSONType(edit)
	err = s.db.WithContext(ctx).Model(media).Select("caption", "metadata", "updated_at").Updates(media).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to update caption")
	}
	s.Invalidate()

	var channel model.Channel
	var title *string
	if s.db.WithContext(ctx).Where("chat_id = ?", media.ChatId).Limit(1).Find(&channel).RowsAffected > 0 {
		title = &channel.Title
	}
	view, err := newMediaView(media, title)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteMedia removes the media row, the message it came from and then the
// storage object. A missing object or message is not an error.
func (s *Service) DeleteMedia(ctx context.Context, id string) error {
	media, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = realtime.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Delete(media).Error; err != nil {
			return err
		}
		var siblings int64
		if err := tx.Model(&model.Media{}).
			Where("chat_id = ? AND message_id = ?", media.ChatId, media.MessageId).
			Count(&siblings).Error; err != nil {
			return err
		}
		if siblings > 0 {
			return nil
		}
		return tx.Where("chat_id = ? AND message_id = ?", media.ChatId, media.MessageId).Delete(&model.Message{}).Error
	})
	if err != nil {
		return errors.Wrapf(err, "fail to delete media %s", id)
	}
	s.Invalidate()

	if key := storageKey(media, s.store); key != "" {
		if err := s.store.Delete(ctx, key); err != nil {
			Logger.Log.Warn("fail to delete storage object ", key, ": ", err)
		}
	}
	return nil
}

// DeleteMany deletes each media independently and reports per item.
func (s *Service) DeleteMany(ctx context.Context, ids []string) []ItemResult {
	results := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		res := ItemResult{Id: id, Ok: true}
		if err := s.DeleteMedia(ctx, id); err != nil {
			res.Ok = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// storageKey is the object key of a media. Rows predating generated file
// names only carry their public url.
func storageKey(media *model.Media, store file_store.MediaFileStore) string {
	if media.FileName != "" {
		return media.FileName
	}
	key, _ := store.KeyFromUrl(media.PublicUrl)
	return key
}
