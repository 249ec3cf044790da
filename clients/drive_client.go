package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"
)

const driveUploadBase = "https://www.googleapis.com/upload/drive/v3/files"

// DriveClient uploads files to Google Drive.
type DriveClient struct {
	http       *HttpClient
	uploadBase string
}

type DriveFile struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink"`
}

func NewDriveClient(httpClient *HttpClient) *DriveClient {
	return &DriveClient{http: httpClient, uploadBase: driveUploadBase}
}

// NewDriveClientWithBase is used by tests to point the client at a fake api.
func NewDriveClientWithBase(httpClient *HttpClient, uploadBase string) *DriveClient {
	return &DriveClient{http: httpClient, uploadBase: strings.TrimRight(uploadBase, "/")}
}

// Upload creates a file with a multipart upload, metadata first then content.
// https://developers.google.com/drive/api/guides/manage-uploads#multipart
func (c *DriveClient) Upload(ctx context.Context, name, mimeType, folderId string, data []byte) (*DriveFile, error) {
	meta := map[string]interface{}{"name": name, "mimeType": mimeType}
	if folderId != "" {
		meta["parents"] = []string{folderId}
	}
	metaJson, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.Wrap(err, "fail to encode drive metadata")
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, err
	}
	metaPart.Write(metaJson)
	filePart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return nil, err
	}
	filePart.Write(data)
	if err := w.Close(); err != nil {
		return nil, err
	}

	uri := c.uploadBase + "?uploadType=multipart&fields=id,name,mimeType,webViewLink"
	res, err := c.http.Do(ctx, http.MethodPost, uri, body, http.Header{
		"Content-Type": {"multipart/related; boundary=" + w.Boundary()},
	})
	if err != nil {
		return nil, errors.Wrap(err, "drive upload failed")
	}
	defer res.Body.Close()

	var file DriveFile
	if err := decodeJSON(res.Body, &file); err != nil {
		return nil, err
	}
	return &file, nil
}
