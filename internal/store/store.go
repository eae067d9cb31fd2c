package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"museum-registry-backend/internal/model"
)

// ErrNoAuthorityTypes is returned when authority creation cannot resolve a
// default type because none exist. This is a deployment problem, not user
// input: types are seeded out-of-band.
var ErrNoAuthorityTypes = errors.New("no authority types configured")

const typeCacheKey = "authority_types"

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	GetUser(ctx context.Context, id uint) (*model.User, error)

	ListAuthorityTypes(ctx context.Context) ([]model.AuthorityType, error)
	DefaultAuthorityType(ctx context.Context, pinnedID uint) (*model.AuthorityType, error)

	CreateAuthority(ctx context.Context, a *model.Authority) error
	GetAuthority(ctx context.Context, id uint) (*model.Authority, error)
	UpdateAuthority(ctx context.Context, a *model.Authority) error
	DeleteAuthority(ctx context.Context, id uint) error
	CountAuthorities(ctx context.Context, typeID uint) (int64, error)
	ListAuthorities(ctx context.Context, typeID uint, offset, limit int) ([]model.Authority, error)

	CreateMuseum(ctx context.Context, m *model.Museum) error
	GetMuseum(ctx context.Context, id uint) (*model.Museum, error)
	MuseumsByAuthority(ctx context.Context, authorityID uint) ([]model.Museum, error)

	CreateComment(ctx context.Context, c *model.MuseumComment) error
	CommentsByMuseum(ctx context.Context, museumID uint) ([]model.MuseumComment, error)
	CountCommentsByAuthority(ctx context.Context, authorityID uint) (int64, error)
	CommentsByAuthority(ctx context.Context, authorityID uint, offset, limit int) ([]model.MuseumComment, error)

	GetOrCreateBooking(ctx context.Context, userID, museumID uint) (created bool, err error)
	GetOrCreateBookmark(ctx context.Context, userID, museumID uint) (created bool, err error)

	SearchAuthorities(ctx context.Context, query string) ([]model.Authority, error)
	SearchMuseums(ctx context.Context, query string) ([]model.Museum, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	SubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	SubscriptionsByUser(ctx context.Context, userID uint) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string, userID uint) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db        *gorm.DB
	typeCache *cache.Cache
}

// NewGormStore creates a new GORM-backed store. Authority types change only
// through out-of-band seeding, so their listing is cached briefly.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db:        db,
		typeCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Authority types ---

func (s *gormStore) ListAuthorityTypes(ctx context.Context) ([]model.AuthorityType, error) {
	if cached, found := s.typeCache.Get(typeCacheKey); found {
		return cached.([]model.AuthorityType), nil
	}

	var types []model.AuthorityType
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	s.typeCache.Set(typeCacheKey, types, cache.DefaultExpiration)
	return types, nil
}

// DefaultAuthorityType resolves the type assigned to new authorities: the
// pinned id from configuration when set, otherwise the oldest row.
func (s *gormStore) DefaultAuthorityType(ctx context.Context, pinnedID uint) (*model.AuthorityType, error) {
	var t model.AuthorityType
	if pinnedID != 0 {
		if err := s.db.WithContext(ctx).First(&t, pinnedID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("configured default authority type %d does not exist: %w", pinnedID, ErrNoAuthorityTypes)
			}
			return nil, err
		}
		return &t, nil
	}

	if err := s.db.WithContext(ctx).Order("id ASC").First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAuthorityTypes
		}
		return nil, err
	}
	return &t, nil
}

// --- Authorities ---

func (s *gormStore) CreateAuthority(ctx context.Context, a *model.Authority) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *gormStore) GetAuthority(ctx context.Context, id uint) (*model.Authority, error) {
	var a model.Authority
	if err := s.db.WithContext(ctx).Preload("Type").Preload("Owner").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAuthority persists the editable columns only. OwnerID and TypeID are
// never written here: ownership is fixed at creation.
func (s *gormStore) UpdateAuthority(ctx context.Context, a *model.Authority) error {
	return s.db.WithContext(ctx).
		Model(&model.Authority{ID: a.ID}).
		Updates(map[string]any{
			"name":        a.Name,
			"description": a.Description,
			"image":       a.Image,
		}).Error
}

// DeleteAuthority removes the authority and everything hanging off it in one
// transaction. The explicit dependent deletes keep sqlite (no FK enforcement
// by default) consistent with postgres cascades.
func (s *gormStore) DeleteAuthority(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		museumIDs := tx.Model(&model.Museum{}).Select("id").Where("authority_id = ?", id)

		if err := tx.Where("museum_id IN (?)", museumIDs).Delete(&model.MuseumComment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments for authority %d: %w", id, err)
		}
		if err := tx.Where("museum_id IN (?)", museumIDs).Delete(&model.Booking{}).Error; err != nil {
			return fmt.Errorf("failed to delete bookings for authority %d: %w", id, err)
		}
		if err := tx.Where("museum_id IN (?)", museumIDs).Delete(&model.Bookmark{}).Error; err != nil {
			return fmt.Errorf("failed to delete bookmarks for authority %d: %w", id, err)
		}
		if err := tx.Where("authority_id = ?", id).Delete(&model.Museum{}).Error; err != nil {
			return fmt.Errorf("failed to delete museums for authority %d: %w", id, err)
		}
		if err := tx.Delete(&model.Authority{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete authority %d: %w", id, err)
		}
		return nil
	})
}

func (s *gormStore) CountAuthorities(ctx context.Context, typeID uint) (int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Authority{})
	if typeID != 0 {
		q = q.Where("type_id = ?", typeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (s *gormStore) ListAuthorities(ctx context.Context, typeID uint, offset, limit int) ([]model.Authority, error) {
	q := s.db.WithContext(ctx).Preload("Type").Order("id ASC")
	if typeID != 0 {
		q = q.Where("type_id = ?", typeID)
	}
	var authorities []model.Authority
	err := q.Offset(offset).Limit(limit).Find(&authorities).Error
	return authorities, err
}

// --- Museums ---

func (s *gormStore) CreateMuseum(ctx context.Context, m *model.Museum) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormStore) GetMuseum(ctx context.Context, id uint) (*model.Museum, error) {
	var m model.Museum
	if err := s.db.WithContext(ctx).Preload("Authority").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) MuseumsByAuthority(ctx context.Context, authorityID uint) ([]model.Museum, error) {
	var museums []model.Museum
	err := s.db.WithContext(ctx).
		Where("authority_id = ?", authorityID).
		Order("id ASC").
		Find(&museums).Error
	return museums, err
}

// --- Comments ---

func (s *gormStore) CreateComment(ctx context.Context, c *model.MuseumComment) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) CommentsByMuseum(ctx context.Context, museumID uint) ([]model.MuseumComment, error) {
	var comments []model.MuseumComment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("museum_id = ?", museumID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

func (s *gormStore) CountCommentsByAuthority(ctx context.Context, authorityID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.MuseumComment{}).
		Joins("JOIN museums ON museums.id = museum_comments.museum_id").
		Where("museums.authority_id = ?", authorityID).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CommentsByAuthority(ctx context.Context, authorityID uint, offset, limit int) ([]model.MuseumComment, error) {
	var comments []model.MuseumComment
	err := s.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN museums ON museums.id = museum_comments.museum_id").
		Where("museums.authority_id = ?", authorityID).
		Order("museum_comments.created_at DESC, museum_comments.id DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	return comments, err
}

// --- Bookings and bookmarks ---

// GetOrCreateBooking is idempotent per (user, museum). FirstOrCreate is two
// round trips, so the loser of a concurrent race hits the composite unique
// index on the create step; that duplicate is re-read and reported as
// existing, never as an error.
func (s *gormStore) GetOrCreateBooking(ctx context.Context, userID, museumID uint) (bool, error) {
	var booking model.Booking
	res := s.db.WithContext(ctx).
		Where(model.Booking{UserID: userID, MuseumID: museumID}).
		FirstOrCreate(&booking)
	if res.Error != nil {
		if s.lostEngagementRace(ctx, res.Error, &model.Booking{}, userID, museumID) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) GetOrCreateBookmark(ctx context.Context, userID, museumID uint) (bool, error) {
	var bookmark model.Bookmark
	res := s.db.WithContext(ctx).
		Where(model.Bookmark{UserID: userID, MuseumID: museumID}).
		FirstOrCreate(&bookmark)
	if res.Error != nil {
		if s.lostEngagementRace(ctx, res.Error, &model.Bookmark{}, userID, museumID) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// lostEngagementRace reports whether a failed create was a duplicate-key loss
// against the (user, museum) unique index. Not every driver translates the
// violation to ErrDuplicatedKey, so the pair is re-read as the tiebreaker.
func (s *gormStore) lostEngagementRace(ctx context.Context, createErr error, record any, userID, museumID uint) bool {
	if errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return true
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(record).
		Where("user_id = ? AND museum_id = ?", userID, museumID).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// --- Search ---

// likeEscaper neutralizes LIKE metacharacters so the query text is matched
// literally. A search for "%" must only find names containing a percent sign.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}

// SearchAuthorities is a case-insensitive substring match on the name.
// LOWER(...) LIKE keeps postgres and sqlite behavior identical.
func (s *gormStore) SearchAuthorities(ctx context.Context, query string) ([]model.Authority, error) {
	var authorities []model.Authority
	err := s.db.WithContext(ctx).
		Preload("Type").
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(query)).
		Order("id ASC").
		Find(&authorities).Error
	return authorities, err
}

func (s *gormStore) SearchMuseums(ctx context.Context, query string) ([]model.Museum, error) {
	var museums []model.Museum
	err := s.db.WithContext(ctx).
		Preload("Authority").
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(query)).
		Order("id ASC").
		Find(&museums).Error
	return museums, err
}

// --- Push subscriptions ---

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
	}).Create(sub).Error
}

func (s *gormStore) SubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) SubscriptionsByUser(ctx context.Context, userID uint) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string, userID uint) error {
	return s.db.WithContext(ctx).
		Where("endpoint = ? AND user_id = ?", endpoint, userID).
		Delete(&model.PushSubscription{}).Error
}

func (s *gormStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&model.PushSubscription{}).Error
}
