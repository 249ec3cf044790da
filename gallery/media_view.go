package gallery

import (
	"time"

	"github.com/Luismorlan/mediamux/model"
	"github.com/jinzhu/copier"
)

// MediaView is a gallery row: the media joined with its channel title.
type MediaView struct {
	Id           string              `json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	ChatId       int64               `json:"chat_id"`
	MessageId    int64               `json:"message_id"`
	FileName     string              `json:"file_name"`
	FileUrl      string              `json:"file_url"`
	PublicUrl    string              `json:"public_url"`
	MediaType    model.MediaType     `json:"media_type"`
	Caption      *string             `json:"caption"`
	MediaGroupId *string             `json:"media_group_id"`
	FileUniqueId *string             `json:"file_unique_id"`
	Metadata     model.MediaMetadata `json:"metadata" copier:"-"`
	DriveId      *string             `json:"drive_id"`
	DriveUrl     *string             `json:"drive_url"`
	ChannelTitle string              `json:"channel_title"`
	Uploaded     bool                `json:"uploaded"`
}

// mediaRow is the shape of the joined gallery query.
type mediaRow struct {
	model.Media  `gorm:"embedded"`
	ChannelTitle *string
}

func newMediaView(media *model.Media, channelTitle *string) (MediaView, error) {
	var view MediaView
	if err := copier.Copy(&view, media); err != nil {
		return view, err
	}
	view.Metadata = media.Metadata.Data()
	view.Uploaded = media.DriveId != nil
	if channelTitle != nil {
		view.ChannelTitle = *channelTitle
	} else {
		view.ChannelTitle = model.DefaultChannelTitle(media.ChatId)
	}
	return view, nil
}
