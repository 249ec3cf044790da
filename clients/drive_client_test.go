package clients

import (
	"context"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveUploadMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/related", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		meta, err := reader.NextPart()
		require.NoError(t, err)
		metaBody, _ := ioutil.ReadAll(meta)
		assert.JSONEq(t, `{"name":"a.jpg","mimeType":"image/jpeg","parents":["folder"]}`, string(metaBody))

		content, err := reader.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", content.Header.Get("Content-Type"))
		data, _ := ioutil.ReadAll(content)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.Write([]byte(`{"id":"drive-1","name":"a.jpg","webViewLink":"https://drive/view/drive-1"}`))
	}))
	defer server.Close()

	client := NewDriveClientWithBase(NewDefaultHttpClient(), server.URL)
	file, err := client.Upload(context.Background(), "a.jpg", "image/jpeg", "folder", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "drive-1", file.Id)
	assert.Equal(t, "https://drive/view/drive-1", file.WebViewLink)
}
