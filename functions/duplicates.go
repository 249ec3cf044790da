package functions

import (
	"context"
	"fmt"
	"sort"

	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/pkg/errors"
)

type DuplicateCleanupRequest struct {
	// ChatId limits the cleanup to one chat when set.
	ChatId *int64 `json:"chat_id"`
}

type DuplicateCleanupResult struct {
	Deleted int      `json:"deleted"`
	Kept    int      `json:"kept"`
	Errors  []string `json:"errors"`
}

// duplicateKey groups media coming from the same telegram file. Rows without
// file_unique_id are grouped by their message and type.
func duplicateKey(m *model.Media) string {
	if m.FileUniqueId != nil && *m.FileUniqueId != "" {
		return "file:" + *m.FileUniqueId
	}
	return fmt.Sprintf("message:%d:%d:%s", m.ChatId, m.MessageId, m.MediaType)
}

// DeleteDuplicates keeps the newest media of every duplicate group and
// deletes the others, along with their storage objects unless the kept row
// points at the same object.
func (f *Functions) DeleteDuplicates(ctx context.Context, req DuplicateCleanupRequest) (*DuplicateCleanupResult, error) {
	query := f.DB.WithContext(ctx).Order("created_at DESC, id")
	if req.ChatId != nil {
		query = query.Where("chat_id = ?", *req.ChatId)
	}
	var media []model.Media
	if err := query.Find(&media).Error; err != nil {
		return nil, errors.Wrap(err, "fail to load media")
	}

	groups := map[string][]*model.Media{}
	var keys []string
	for i := range media {
		key := duplicateKey(&media[i])
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], &media[i])
	}
	sort.Strings(keys)

	res := &DuplicateCleanupResult{Errors: []string{}}
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		// Rows are loaded newest first.
		kept := group[0]
		res.Kept++
		for _, dup := range group[1:] {
			if err := f.DB.WithContext(ctx).Delete(dup).Error; err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", dup.Id, err))
				continue
			}
			res.Deleted++
			if dup.FileName == "" || dup.FileName == kept.FileName || f.Store == nil {
				continue
			}
			if err := f.Store.Delete(ctx, dup.FileName); err != nil {
				Logger.Log.Warn("fail to delete duplicate object ", dup.FileName, ": ", err)
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", dup.FileName, err))
			}
		}
	}
	return res, nil
}
