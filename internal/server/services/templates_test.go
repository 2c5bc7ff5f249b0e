package services

import (
	"testing"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/templating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateService_Visibility(t *testing.T) {
	e := newTestEnv(t)
	ctx := t.Context()
	owner := e.register(t, "owner@example.com").User.ID
	other := e.register(t, "other@example.com").User.ID

	private, err := e.templates.Create(ctx, owner, TemplateInput{Name: " Private ", Subject: "Hi {{name}}", HTML: "<p>{{ name }} {{code}}</p>"})
	require.NoError(t, err)
	assert.Equal(t, "Private", private.Name())
	assert.Equal(t, []string{"name", "code"}, private.Variables())

	public, err := e.templates.Create(ctx, owner, TemplateInput{Name: "Public", HTML: "<p>x</p>", IsPublic: true})
	require.NoError(t, err)

	_, err = e.templates.Get(ctx, other, private.Ref())
	assert.ErrorIs(t, err, common.ErrorForbidden)
	got, err := e.templates.Get(ctx, other, public.Ref())
	require.NoError(t, err)
	assert.Equal(t, "Public", got.Name())

	_, err = e.templates.Get(ctx, owner, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = e.templates.Get(ctx, owner, "predefined:missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := e.templates.List(ctx, other)
	require.NoError(t, err)
	refs := make([]string, 0, len(list))
	for _, tpl := range list {
		refs = append(refs, tpl.Ref())
	}
	assert.Contains(t, refs, "predefined:welcome")
	assert.Contains(t, refs, public.Ref())
	assert.NotContains(t, refs, private.Ref())
}

func TestTemplateService_Ownership(t *testing.T) {
	e := newTestEnv(t)
	ctx := t.Context()
	owner := e.register(t, "o1@example.com").User.ID
	other := e.register(t, "o2@example.com").User.ID

	public, err := e.templates.Create(ctx, owner, TemplateInput{Name: "Shared", HTML: "<p>x</p>", IsPublic: true})
	require.NoError(t, err)

	_, err = e.templates.Update(ctx, other, public.Ref(), TemplateInput{Name: "Hijack"})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.ErrorIs(t, e.templates.Delete(ctx, other, public.Ref()), common.ErrorForbidden)

	_, err = e.templates.Update(ctx, owner, "predefined:welcome", TemplateInput{Name: "Mine"})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.ErrorIs(t, e.templates.Delete(ctx, owner, "predefined:welcome"), common.ErrorForbidden)

	updated, err := e.templates.Update(ctx, owner, public.Ref(), TemplateInput{Name: "Renamed", HTML: "<b>{{who}}</b>"})
	require.NoError(t, err)
	assert.Equal(t, public.Ref(), updated.Ref())
	assert.Equal(t, []string{"who"}, updated.Variables())
	assert.False(t, updated.Readable(other))

	require.NoError(t, e.templates.Delete(ctx, owner, public.Ref()))
	_, err = e.templates.Get(ctx, owner, public.Ref())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTemplateService_Duplicate(t *testing.T) {
	e := newTestEnv(t)
	ctx := t.Context()
	uid := e.register(t, "dup@example.com").User.ID

	cp, err := e.templates.Duplicate(ctx, uid, "predefined:welcome")
	require.NoError(t, err)
	assert.Equal(t, "Welcome email (copy)", cp.Name())
	assert.True(t, cp.Writable(uid))
	stored, ok := cp.(templating.Stored)
	require.True(t, ok)
	assert.False(t, stored.IsPublic)
	assert.ElementsMatch(t, []string{"company", "name", "link"}, cp.Variables())
}

func TestTemplateService_Preview(t *testing.T) {
	e := newTestEnv(t)
	uid := e.register(t, "pv@example.com").User.ID

	subject, html, err := e.templates.Preview(t.Context(), uid, "predefined:welcome", map[string]string{"name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to [company]", subject)
	assert.Contains(t, html, "Welcome, Ann!")
	assert.Contains(t, html, `href="[link]"`)
}
