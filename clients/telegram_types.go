package clients

// Types mirror the subset of the telegram Bot API update schema the service
// reads. https://core.telegram.org/bots/api#update

type TelegramUpdate struct {
	UpdateId          int64            `json:"update_id"`
	Message           *TelegramMessage `json:"message,omitempty"`
	EditedMessage     *TelegramMessage `json:"edited_message,omitempty"`
	ChannelPost       *TelegramMessage `json:"channel_post,omitempty"`
	EditedChannelPost *TelegramMessage `json:"edited_channel_post,omitempty"`
}

type TelegramMessage struct {
	MessageId       int64               `json:"message_id"`
	From            *TelegramUser       `json:"from,omitempty"`
	SenderChat      *TelegramChat       `json:"sender_chat,omitempty"`
	Date            int64               `json:"date"`
	Chat            *TelegramChat       `json:"chat,omitempty"`
	ForwardFrom     *TelegramUser       `json:"forward_from,omitempty"`
	ForwardFromChat *TelegramChat       `json:"forward_from_chat,omitempty"`
	ForwardDate     int64               `json:"forward_date,omitempty"`
	MediaGroupId    string              `json:"media_group_id,omitempty"`
	Text            string              `json:"text,omitempty"`
	Caption         string              `json:"caption,omitempty"`
	Photo           []TelegramPhotoSize `json:"photo,omitempty"`
	Video           *TelegramVideo      `json:"video,omitempty"`
	Document        *TelegramDocument   `json:"document,omitempty"`
	Animation       *TelegramAnimation  `json:"animation,omitempty"`
}

type TelegramUser struct {
	Id        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type TelegramChat struct {
	Id        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type TelegramPhotoSize struct {
	FileId       string `json:"file_id"`
	FileUniqueId string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type TelegramVideo struct {
	FileId       string `json:"file_id"`
	FileUniqueId string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type TelegramDocument struct {
	FileId       string `json:"file_id"`
	FileUniqueId string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

type TelegramAnimation struct {
	FileId       string `json:"file_id"`
	FileUniqueId string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// TelegramFile is the result of getFile.
type TelegramFile struct {
	FileId       string `json:"file_id"`
	FileUniqueId string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
}

// EffectiveMessage returns the message carried by the update, whichever
// shape it has.
func (u *TelegramUpdate) EffectiveMessage() *TelegramMessage {
	switch {
	case u.Message != nil:
		return u.Message
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	}
	return nil
}

// TextOrCaption returns the text of a text message or the caption of a media
// message.
func (m *TelegramMessage) TextOrCaption() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}
