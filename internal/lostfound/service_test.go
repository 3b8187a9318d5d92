package lostfound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostfound/registry/internal/auth"
	"github.com/lostfound/registry/internal/imaging"
	"github.com/lostfound/registry/internal/media"
)

type fixture struct {
	svc    *Service
	users  *fakeUsers
	tokens *fakeTokens
	items  *fakeItems
	blobs  *fakeBlobs
}

func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()
	users := newFakeUsers()
	f := &fixture{
		users:  users,
		tokens: newFakeTokens(users),
		items:  &fakeItems{},
		blobs:  newFakeBlobs(),
	}
	f.svc = New(Params{
		Users:        f.users,
		Tokens:       f.tokens,
		Items:        f.items,
		Blobs:        f.blobs,
		ProcessImage: passthroughImage,
		Now:          stepClock(),
		PageSize:     pageSize,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

// identity registers username and resolves its token.
func (f *fixture) identity(t *testing.T, username string, staff bool) auth.Identity {
	t.Helper()
	ctx := context.Background()
	token, err := f.svc.Register(ctx, username, "pw-"+username)
	require.NoError(t, err)
	if staff {
		f.users.setStaff(username)
	}
	id, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	return id
}

func (f *fixture) report(t *testing.T, caller auth.Identity, name string) int64 {
	t.Helper()
	item, err := f.svc.CreateItem(context.Background(), caller, ItemInput{
		Name:      name,
		Category:  "electronics",
		DateFound: "2024-05-01",
		Image:     photo(),
	})
	require.NoError(t, err)
	return item.ID
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e), "expected *Error, got %v", err)
	require.Equal(t, kind, e.Kind, "error: %v", err)
	return e
}

func TestNewDefaults(t *testing.T) {
	svc := New(Params{})
	assert.Equal(t, DefaultPageSize, svc.pageSize)
	assert.NotNil(t, svc.processImage)
	assert.NotNil(t, svc.now)
	assert.NotNil(t, svc.newUUID)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	token, err := f.svc.Register(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Len(t, token, 40)

	again, err := f.svc.Login(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.Equal(t, token, again, "login should return the existing token")

	id, err := f.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, id.Authenticated())
	assert.Equal(t, "ana", id.Username)
	assert.False(t, id.IsStaff)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	for _, tc := range []struct{ username, password string }{
		{"", "secret"},
		{"ana", ""},
		{"", ""},
	} {
		_, err := f.svc.Register(ctx, tc.username, tc.password)
		e := requireKind(t, err, KindValidation)
		assert.Equal(t, MsgCredentialsRequired, e.Detail)
	}

	_, err := f.svc.Register(ctx, strings.Repeat("u", 151), "secret")
	e := requireKind(t, err, KindValidation)
	assert.Contains(t, e.Fields, "username")
}

func TestRegisterPasswordTooLong(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "bob", strings.Repeat("p", 73))
	e := requireKind(t, err, KindValidation)
	assert.Equal(t, []string{MsgPasswordTooLong}, e.Fields["password"])

	user, err := f.users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, user, "no account should be created")

	token, err := f.svc.Register(ctx, "bob", strings.Repeat("p", 72))
	require.NoError(t, err)
	assert.Len(t, token, 40)

	_, err = f.svc.Login(ctx, "bob", strings.Repeat("p", 73))
	e = requireKind(t, err, KindAuthentication)
	assert.Equal(t, MsgInvalidCredentials, e.Detail)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "ana", "secret")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "ana", "other")
	e := requireKind(t, err, KindConflict)
	assert.Equal(t, MsgUsernameTaken, e.Detail)
}

func TestRegisterRaceReportsConflict(t *testing.T) {
	f := newFixture(t, 0)
	f.users.raceOnCreate = true

	_, err := f.svc.Register(context.Background(), "ana", "secret")
	requireKind(t, err, KindConflict)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "ana", "secret")
	require.NoError(t, err)

	for _, tc := range []struct {
		name, username, password string
	}{
		{"wrong password", "ana", "nope"},
		{"unknown user", "bob", "secret"},
		{"empty password", "ana", ""},
		{"empty username", "", "secret"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tc.username, tc.password)
			e := requireKind(t, err, KindAuthentication)
			assert.Equal(t, MsgInvalidCredentials, e.Detail)
		})
	}
}

func TestAuthenticateUnknownToken(t *testing.T) {
	f := newFixture(t, 0)
	id, err := f.svc.Authenticate(context.Background(), strings.Repeat("0", 40))
	e := requireKind(t, err, KindAuthentication)
	assert.Equal(t, MsgInvalidToken, e.Detail)
	assert.False(t, id.Authenticated())
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)

	item, err := f.svc.CreateItem(context.Background(), ana, ItemInput{
		Name:        "  Black umbrella ",
		Category:    "other",
		Description: "Left in room 2",
		DateFound:   "2024-05-01",
		Image:       photo(),
	})
	require.NoError(t, err)

	assert.NotZero(t, item.ID)
	assert.NotEqual(t, uuid.Nil, item.UUID)
	assert.Equal(t, "Black umbrella", item.Name)
	assert.Equal(t, "ana", item.UserName)
	assert.Equal(t, ana.UserID, item.UserID)
	assert.False(t, item.Claimed)
	assert.Equal(t, media.ItemImageKey(item.UUID.String()), item.Image)
	assert.True(t, f.blobs.has(item.Image))
	assert.False(t, item.CreatedAt.IsZero())

	got, err := f.svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.UUID, got.UUID)
}

func TestCreateItemDistinctUUIDs(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)

	first := f.report(t, ana, "first")
	second := f.report(t, ana, "second")

	a, err := f.svc.GetItem(context.Background(), first)
	require.NoError(t, err)
	b, err := f.svc.GetItem(context.Background(), second)
	require.NoError(t, err)
	assert.NotEqual(t, a.UUID, b.UUID)
}

func TestCreateItemRequiresImage(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)

	_, err := f.svc.CreateItem(context.Background(), ana, ItemInput{
		Name:      "Keys",
		Category:  "other",
		DateFound: "2024-05-01",
	})
	e := requireKind(t, err, KindValidation)
	assert.Equal(t, []string{MsgImageRequired}, e.Fields["image"])

	count, err := f.items.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateItemCollectsFieldErrors(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)

	_, err := f.svc.CreateItem(context.Background(), ana, ItemInput{
		Name:      "   ",
		Category:  "jewellery",
		DateFound: "01/05/2024",
	})
	e := requireKind(t, err, KindValidation)
	assert.Equal(t, []string{MsgFieldRequired}, e.Fields["name"])
	assert.Equal(t, []string{`"jewellery" is not a valid choice.`}, e.Fields["category"])
	assert.Equal(t, []string{MsgInvalidDate}, e.Fields["date_found"])
	assert.Equal(t, []string{MsgImageRequired}, e.Fields["image"])
}

func TestCreateItemNameTooLong(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)

	_, err := f.svc.CreateItem(context.Background(), ana, ItemInput{
		Name:      strings.Repeat("n", 121),
		Category:  "other",
		DateFound: "2024-05-01",
		Image:     photo(),
	})
	e := requireKind(t, err, KindValidation)
	assert.Contains(t, e.Fields, "name")
}

func TestCreateItemAnonymous(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.CreateItem(context.Background(), auth.Anonymous, ItemInput{
		Name:      "Keys",
		Category:  "other",
		DateFound: "2024-05-01",
		Image:     photo(),
	})
	requireKind(t, err, KindAuthentication)
}

func TestCreateItemInvalidImage(t *testing.T) {
	f := newFixture(t, 0)
	f.svc.processImage = imaging.Process
	ana := f.identity(t, "ana", false)

	_, err := f.svc.CreateItem(context.Background(), ana, ItemInput{
		Name:      "Keys",
		Category:  "other",
		DateFound: "2024-05-01",
		Image:     strings.NewReader("definitely not an image"),
	})
	e := requireKind(t, err, KindValidation)
	assert.Equal(t, []string{MsgInvalidImage}, e.Fields["image"])
	assert.Empty(t, f.blobs.data)
}

func TestCreateItemStoreFailureRemovesImage(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)
	f.items.createErr = errors.New("disk full")

	_, err := f.svc.CreateItem(context.Background(), ana, ItemInput{
		Name:      "Keys",
		Category:  "other",
		DateFound: "2024-05-01",
		Image:     photo(),
	})
	require.Error(t, err)
	assert.Zero(t, KindOf(err), "store failures are not request errors")
	assert.Empty(t, f.blobs.data)
}

func TestListItemsNewestFirst(t *testing.T) {
	f := newFixture(t, 2)
	ana := f.identity(t, "ana", false)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		f.report(t, ana, fmt.Sprintf("item %d", i))
	}

	page, err := f.svc.ListItems(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Count)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "item 5", page.Items[0].Name)
	assert.Equal(t, "item 4", page.Items[1].Name)

	page, err = f.svc.ListItems(ctx, 3)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "item 1", page.Items[0].Name)

	for _, n := range []int{0, -1, 4} {
		_, err := f.svc.ListItems(ctx, n)
		e := requireKind(t, err, KindNotFound)
		assert.Equal(t, MsgInvalidPage, e.Detail)
	}
}

func TestListItemsEmpty(t *testing.T) {
	f := newFixture(t, 0)
	page, err := f.svc.ListItems(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNext)
}

func TestGetItemNotFound(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.GetItem(context.Background(), 42)
	requireKind(t, err, KindNotFound)
}

func TestSetClaimedRequiresAdmin(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)
	id := f.report(t, ana, "Wallet")

	_, err := f.svc.SetClaimed(context.Background(), ana, id, true)
	e := requireKind(t, err, KindAuthorization)
	assert.Equal(t, MsgAdminRequired, e.Detail)

	item, err := f.svc.GetItem(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, item.Claimed)
}

func TestSetClaimedAnonymous(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)
	id := f.report(t, ana, "Wallet")

	_, err := f.svc.SetClaimed(context.Background(), auth.Anonymous, id, true)
	requireKind(t, err, KindAuthentication)
}

func TestSetClaimedLiterals(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)
	admin := f.identity(t, "admin", true)
	id := f.report(t, ana, "Wallet")
	ctx := context.Background()

	trues := []any{true, "true", "True", "1", 1}
	falses := []any{false, "false", "False", "0", 0}
	for i := range trues {
		item, err := f.svc.SetClaimed(ctx, admin, id, trues[i])
		require.NoError(t, err, "value %#v", trues[i])
		assert.True(t, item.Claimed, "value %#v", trues[i])

		item, err = f.svc.SetClaimed(ctx, admin, id, falses[i])
		require.NoError(t, err, "value %#v", falses[i])
		assert.False(t, item.Claimed, "value %#v", falses[i])
	}

	stored, err := f.svc.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Wallet", stored.Name)
	assert.Equal(t, "ana", stored.UserName)
}

func TestSetClaimedInvalidValue(t *testing.T) {
	f := newFixture(t, 0)
	ana := f.identity(t, "ana", false)
	admin := f.identity(t, "admin", true)
	id := f.report(t, ana, "Wallet")

	for _, v := range []any{"yes", "TRUE", 2, nil, ""} {
		_, err := f.svc.SetClaimed(context.Background(), admin, id, v)
		e := requireKind(t, err, KindValidation)
		assert.Equal(t, []string{MsgInvalidValue}, e.Fields["claimed"], "value %#v", v)
	}
}

func TestSetClaimedUnknownItem(t *testing.T) {
	f := newFixture(t, 0)
	admin := f.identity(t, "admin", true)

	_, err := f.svc.SetClaimed(context.Background(), admin, 999, true)
	requireKind(t, err, KindNotFound)
}

func TestErrorString(t *testing.T) {
	fe := fieldErrors{}
	fe.add("name", "bad")
	fe.add("category", "worse")
	assert.Equal(t, "validation: category: worse; name: bad", fe.err().Error())
	assert.Equal(t, "conflict: taken", newError(KindConflict, "taken").Error())
	assert.Nil(t, fieldErrors{}.err())
	assert.Zero(t, KindOf(errors.New("plain")))
}
