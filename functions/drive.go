package functions

import (
	"context"
	"fmt"
	"io/ioutil"
	"mime"
	"path"

	"github.com/Luismorlan/mediamux/file_store"
	"github.com/Luismorlan/mediamux/gallery"
	"github.com/Luismorlan/mediamux/model"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/pkg/errors"
)

type DriveMigrationRequest struct {
	MediaIds []string `json:"media_ids"`
}

// MigrateToDrive copies media not yet on Drive and records where they went.
// Items are independent, one failure doesn't stop the others.
func (f *Functions) MigrateToDrive(ctx context.Context, ids []string) ([]gallery.ItemResult, error) {
	if f.Drive == nil {
		return nil, errors.Wrap(ErrNotConfigured, "google drive")
	}
	media, err := f.loadMedia(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]gallery.ItemResult, 0, len(media))
	for i := range media {
		m := &media[i]
		if m.DriveId != nil {
			continue
		}
		res := gallery.ItemResult{Id: m.Id, Ok: true}
		if err := f.migrateOne(ctx, m); err != nil {
			Logger.Log.Warn("fail to migrate media ", m.Id, " to drive: ", err)
			res.Ok = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, nil
}

func (f *Functions) migrateOne(ctx context.Context, m *model.Media) error {
	data, contentType, err := f.readObject(ctx, m)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(m.FileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := f.Drive.Upload(ctx, m.FileName, contentType, f.DriveFolderId, data)
	if err != nil {
		return errors.Wrap(err, "fail to upload to drive")
	}
	link := file.WebViewLink
	if link == "" {
		link = fmt.Sprintf("https://drive.google.com/file/d/%s/view", file.Id)
	}
	err = f.DB.WithContext(ctx).Model(m).Updates(map[string]interface{}{"drive_id": file.Id, "drive_url": link}).Error
	return errors.Wrap(err, "fail to record drive file")
}

// readObject reads the media from storage, falling back to its public url
// for objects the store doesn't know.
func (f *Functions) readObject(ctx context.Context, m *model.Media) ([]byte, string, error) {
	if f.Store != nil && m.FileName != "" {
		data, contentType, err := f.Store.Fetch(ctx, m.FileName)
		if err == nil {
			return data, contentType, nil
		}
		if !errors.Is(err, file_store.ErrObjectNotFound) {
			return nil, "", err
		}
	}
	if m.PublicUrl == "" {
		return nil, "", errors.Wrap(ErrNotFound, "media has no stored object")
	}
	res, err := f.Http.Get(ctx, m.PublicUrl)
	if err != nil {
		return nil, "", errors.Wrap(err, "fail to download media")
	}
	defer res.Body.Close()
	data, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	return data, res.Header.Get("Content-Type"), nil
}
