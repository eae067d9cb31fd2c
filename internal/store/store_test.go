package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"museum-registry-backend/internal/model"
)

// A helper to create a fresh in-memory database with the full schema. The
// name keyed to the test keeps pooled connections on the same database while
// isolating tests from each other.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = testDB.AutoMigrate(
		&model.User{},
		&model.AuthorityType{},
		&model.Authority{},
		&model.Museum{},
		&model.MuseumComment{},
		&model.Booking{},
		&model.Bookmark{},
		&model.PushSubscription{},
	)
	require.NoError(t, err)

	return NewGormStore(testDB)
}

func seedUser(t *testing.T, s Store, username string) model.User {
	t.Helper()
	user := model.User{Username: username}
	require.NoError(t, s.DB().Create(&user).Error)
	return user
}

func seedAuthority(t *testing.T, s Store, name string, ownerID uint) model.Authority {
	t.Helper()
	typ := model.AuthorityType{Name: name + " type"}
	require.NoError(t, s.DB().Create(&typ).Error)
	authority := model.Authority{Name: name, OwnerID: ownerID, TypeID: typ.ID}
	require.NoError(t, s.DB().Create(&authority).Error)
	return authority
}

func seedMuseum(t *testing.T, s Store, name string, authorityID uint) model.Museum {
	t.Helper()
	museum := model.Museum{Name: name, AuthorityID: authorityID}
	require.NoError(t, s.DB().Create(&museum).Error)
	return museum
}

func TestDefaultAuthorityType(t *testing.T) {
	ctx := context.Background()

	t.Run("no types configured", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.DefaultAuthorityType(ctx, 0)
		assert.ErrorIs(t, err, ErrNoAuthorityTypes)
	})

	t.Run("falls back to oldest row", func(t *testing.T) {
		s := newTestStore(t)
		first := model.AuthorityType{Name: "national"}
		require.NoError(t, s.DB().Create(&first).Error)
		require.NoError(t, s.DB().Create(&model.AuthorityType{Name: "regional"}).Error)

		typ, err := s.DefaultAuthorityType(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, first.ID, typ.ID)
	})

	t.Run("pinned id wins", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.DB().Create(&model.AuthorityType{Name: "national"}).Error)
		pinned := model.AuthorityType{Name: "regional"}
		require.NoError(t, s.DB().Create(&pinned).Error)

		typ, err := s.DefaultAuthorityType(ctx, pinned.ID)
		require.NoError(t, err)
		assert.Equal(t, pinned.ID, typ.ID)
	})

	t.Run("pinned id missing is a configuration error", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.DB().Create(&model.AuthorityType{Name: "national"}).Error)
		_, err := s.DefaultAuthorityType(ctx, 999)
		assert.ErrorIs(t, err, ErrNoAuthorityTypes)
	})
}

func TestUpdateAuthorityNeverTouchesOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")
	authority := seedAuthority(t, s, "Heritage Board", owner.ID)

	updated := authority
	updated.Name = "Renamed Board"
	updated.OwnerID = 999 // must be ignored
	require.NoError(t, s.UpdateAuthority(ctx, &updated))

	got, err := s.GetAuthority(ctx, authority.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Board", got.Name)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, authority.TypeID, got.TypeID)
}

func TestDeleteAuthorityCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")
	visitor := seedUser(t, s, "visitor")
	authority := seedAuthority(t, s, "Heritage Board", owner.ID)
	museum := seedMuseum(t, s, "City Museum", authority.ID)

	require.NoError(t, s.CreateComment(ctx, &model.MuseumComment{
		MuseumID: museum.ID, UserID: visitor.ID, Comment: "great", Rating: 5,
	}))
	_, err := s.GetOrCreateBooking(ctx, visitor.ID, museum.ID)
	require.NoError(t, err)
	_, err = s.GetOrCreateBookmark(ctx, visitor.ID, museum.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteAuthority(ctx, authority.ID))

	for _, m := range []any{
		&model.Authority{}, &model.Museum{}, &model.MuseumComment{},
		&model.Booking{}, &model.Bookmark{},
	} {
		var count int64
		require.NoError(t, s.DB().Model(m).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestGetOrCreateBookingIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := seedUser(t, s, "visitor")
	owner := seedUser(t, s, "owner")
	authority := seedAuthority(t, s, "Heritage Board", owner.ID)
	museum := seedMuseum(t, s, "City Museum", authority.ID)

	created, err := s.GetOrCreateBooking(ctx, user.ID, museum.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.GetOrCreateBooking(ctx, user.ID, museum.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, s.DB().Model(&model.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A different user booking the same museum is a separate record.
	created, err = s.GetOrCreateBooking(ctx, owner.ID, museum.ID)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCommentsOrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")
	visitor := seedUser(t, s, "visitor")
	authority := seedAuthority(t, s, "Heritage Board", owner.ID)
	museum := seedMuseum(t, s, "City Museum", authority.ID)

	base := time.Now().Add(-time.Hour)
	for i, text := range []string{"oldest", "middle", "newest"} {
		comment := model.MuseumComment{
			MuseumID:  museum.ID,
			UserID:    visitor.ID,
			Comment:   text,
			Rating:    3,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.DB().Create(&comment).Error)
	}

	comments, err := s.CommentsByMuseum(ctx, museum.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "newest", comments[0].Comment)
	assert.Equal(t, "oldest", comments[2].Comment)

	feed, err := s.CommentsByAuthority(ctx, authority.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "newest", feed[0].Comment)

	count, err := s.CountCommentsByAuthority(ctx, authority.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")
	authority := seedAuthority(t, s, "National Heritage", owner.ID)
	seedMuseum(t, s, "Museum of Antiquities", authority.ID)
	seedMuseum(t, s, "Modern Art Hall", authority.ID)

	authorities, err := s.SearchAuthorities(ctx, "heritage")
	require.NoError(t, err)
	require.Len(t, authorities, 1)
	assert.Equal(t, "National Heritage", authorities[0].Name)

	museums, err := s.SearchMuseums(ctx, "ANTIQ")
	require.NoError(t, err)
	require.Len(t, museums, 1)
	assert.Equal(t, "Museum of Antiquities", museums[0].Name)

	museums, err = s.SearchMuseums(ctx, "no such museum")
	require.NoError(t, err)
	assert.Empty(t, museums)
}

func TestSearchTreatsWildcardsAsLiterals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")
	seedAuthority(t, s, "Heritage Board", owner.ID)
	percent := seedAuthority(t, s, "100% Art", owner.ID)
	seedMuseum(t, s, "City Museum", percent.ID)
	seedMuseum(t, s, "My_Museum", percent.ID)

	// "%" must only find names containing a percent sign, never everything.
	authorities, err := s.SearchAuthorities(ctx, "%")
	require.NoError(t, err)
	require.Len(t, authorities, 1)
	assert.Equal(t, "100% Art", authorities[0].Name)

	// "_" must not act as a single-character wildcard.
	museums, err := s.SearchMuseums(ctx, "_")
	require.NoError(t, err)
	require.Len(t, museums, 1)
	assert.Equal(t, "My_Museum", museums[0].Name)

	museums, err = s.SearchMuseums(ctx, "y_m")
	require.NoError(t, err)
	require.Len(t, museums, 1)
	assert.Equal(t, "My_Museum", museums[0].Name)
}

func TestGetOrCreateBookingLostRaceIsReportedAsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := seedUser(t, s, "visitor")
	owner := seedUser(t, s, "owner")
	authority := seedAuthority(t, s, "Heritage Board", owner.ID)
	museum := seedMuseum(t, s, "City Museum", authority.ID)

	// Slip a conflicting row in between the lookup and the create steps,
	// the way a concurrent request would.
	raced := false
	err := s.DB().Callback().Create().Before("gorm:create").Register("booking_rival", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*model.Booking); !ok {
			return
		}
		raced = true
		rival := model.Booking{UserID: user.ID, MuseumID: museum.ID}
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error)
	})
	require.NoError(t, err)

	created, err := s.GetOrCreateBooking(ctx, user.ID, museum.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, raced)

	var count int64
	require.NoError(t, s.DB().Model(&model.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListAuthoritiesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner")

	typeA := model.AuthorityType{Name: "national"}
	typeB := model.AuthorityType{Name: "regional"}
	require.NoError(t, s.DB().Create(&typeA).Error)
	require.NoError(t, s.DB().Create(&typeB).Error)

	for _, typ := range []model.AuthorityType{typeA, typeB, typeA, typeA} {
		a := model.Authority{Name: "Authority", OwnerID: owner.ID, TypeID: typ.ID}
		require.NoError(t, s.DB().Create(&a).Error)
	}

	all, err := s.ListAuthorities(ctx, 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].ID < all[1].ID)

	count, err := s.CountAuthorities(ctx, typeA.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	filtered, err := s.ListAuthorities(ctx, typeA.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, filtered, 3)

	paged, err := s.ListAuthorities(ctx, typeA.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user := seedUser(t, s, "owner")

	sub := model.PushSubscription{
		Endpoint: "https://push.example/abc",
		P256DH:   "key",
		Auth:     "auth",
		UserID:   user.ID,
	}
	require.NoError(t, s.UpsertSubscription(ctx, &sub))

	// Re-registering the same endpoint replaces the keys.
	sub.P256DH = "rotated"
	require.NoError(t, s.UpsertSubscription(ctx, &sub))

	got, err := s.SubscriptionByEndpoint(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.P256DH)

	subs, err := s.SubscriptionsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint, user.ID))
	_, err = s.SubscriptionByEndpoint(ctx, sub.Endpoint)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
