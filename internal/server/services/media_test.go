package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	prefix, contentType string
	err                 error
}

func (f *fakeStore) Put(_ context.Context, prefix, contentType string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prefix, f.contentType = prefix, contentType
	return "https://cdn.example.com/" + prefix + "/a.png", nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCheckImage(t *testing.T) {
	ct, err := checkImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = checkImage(nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = checkImage([]byte("<html><body>hi</body></html>"))
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = checkImage(make([]byte, common.MaxUploadSize+1))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestProfileService(t *testing.T) {
	e := newTestEnv(t)
	ctx := t.Context()
	store := &fakeStore{}
	svc := NewProfileService(newTxDB(t), fakeManager{e.store}, store)

	p, err := svc.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "u", p.UserID)

	url, err := svc.UploadAvatar(ctx, "u", pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "users/u", store.prefix)
	assert.Equal(t, "image/png", store.contentType)

	p, err = svc.Update(ctx, "u", ProfileInput{Bio: " hello ", Website: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Bio)
	assert.Equal(t, url, p.AvatarURL)

	store.err = errors.New("s3 down")
	_, err = svc.UploadAvatar(ctx, "u", pngBytes(t))
	assert.Error(t, err)
	got, err := svc.Get(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, url, got.AvatarURL)
}

func TestImageService(t *testing.T) {
	e := newTestEnv(t)
	ctx := t.Context()
	svc := NewImageService(newTxDB(t), fakeManager{e.store})

	img, err := svc.Upload(ctx, "u", "logo.png", pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Positive(t, img.Size)

	list, err := svc.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Data)

	raw, err := svc.Raw(ctx, img.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Data)
	_, err = svc.Raw(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "someone-else", img.ID), common.ErrorNotFound)
	require.NoError(t, svc.Delete(ctx, "u", img.ID))
	_, err = svc.Raw(ctx, img.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
