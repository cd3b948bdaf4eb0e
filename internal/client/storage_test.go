package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidtube/backend/internal/config"
)

type fakeObjectAPI struct {
	put       *s3.PutObjectInput
	putBody   string
	deleted   []string
	deleteErr error
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = params
	b, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// onlyReader hides any Seek method of the wrapped reader.
type onlyReader struct{ io.Reader }

func TestS3StoragePutBuffersUnseekableBody(t *testing.T) {
	api := &fakeObjectAPI{}
	st := newS3Storage(api, config.StorageConfig{Bucket: "media", Endpoint: "http://minio:9000/"})

	err := st.Put(context.Background(), "avatar/u/1.png", "image/png", 5, onlyReader{strings.NewReader("hello")})
	require.NoError(t, err)

	assert.Equal(t, "media", aws.ToString(api.put.Bucket))
	assert.Equal(t, "avatar/u/1.png", aws.ToString(api.put.Key))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, "hello", api.putBody)
	_, seekable := api.put.Body.(io.Seeker)
	assert.True(t, seekable)
}

func TestS3StorageDeleteAndURL(t *testing.T) {
	api := &fakeObjectAPI{}
	st := newS3Storage(api, config.StorageConfig{Bucket: "media", Endpoint: "http://minio:9000/"})

	require.NoError(t, st.Delete(context.Background(), "cover/u/2.jpg"))
	assert.Equal(t, []string{"cover/u/2.jpg"}, api.deleted)
	assert.Equal(t, "http://minio:9000/media/cover/u/2.jpg", st.URL("cover/u/2.jpg"))

	api.deleteErr = errors.New("boom")
	assert.Error(t, st.Delete(context.Background(), "x"))
}

func TestS3StoragePublicBaseURL(t *testing.T) {
	st := newS3Storage(&fakeObjectAPI{}, config.StorageConfig{Bucket: "media", PublicBaseURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/a/b.png", st.URL("a/b.png"))

	bare := newS3Storage(&fakeObjectAPI{}, config.StorageConfig{Bucket: "media"})
	assert.Equal(t, "a/b.png", bare.URL("a/b.png"))
}
