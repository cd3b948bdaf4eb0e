package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

type memoryObjects struct {
	keys []string
}

func (m *memoryObjects) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	m.keys = append(m.keys, key)
	return nil
}

func (m *memoryObjects) Delete(ctx context.Context, key string) error { return nil }

func (m *memoryObjects) URL(key string) string { return "http://objects.local/" + key }

func multipartImage(t *testing.T, field, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="img.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUpdateAvatarHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := db.NewMemory()
	user, err := repo.CreateUser(context.Background(), &model.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	objects := &memoryObjects{}
	h := NewMediaHandler(service.NewMediaService(repo, objects, slog.New(slog.NewTextHandler(io.Discard, nil)), nil))

	r := gin.New()
	withUser := func(c *gin.Context) {
		c.Set(authUserKey, &model.AuthUser{ID: user.ID, Username: user.Username})
		c.Next()
	}
	r.PATCH("/avatar", withUser, h.UpdateAvatar)
	r.PATCH("/cover-image", withUser, h.UpdateCover)

	body, contentType := multipartImage(t, "avatar", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPatch, "/avatar", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, objects.keys, 1)
	assert.Contains(t, w.Body.String(), objects.keys[0])

	body, contentType = multipartImage(t, "coverImage", "text/plain", []byte("nope"))
	req = httptest.NewRequest(http.MethodPatch, "/cover-image", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// wrong field name
	body, contentType = multipartImage(t, "avatar", "image/png", []byte("png-bytes"))
	req = httptest.NewRequest(http.MethodPatch, "/cover-image", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := repo.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, objects.keys[0], stored.AvatarRef)
	assert.Empty(t, stored.CoverRef)
}
