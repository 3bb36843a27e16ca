package storage

import (
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/game"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateCampaign(c *game.Campaign) error {
	return r.db.Create(c).Error
}

func (r *sqliteRepository) GetCampaignByID(id uint) (*game.Campaign, error) {
	var c game.Campaign
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) CreateCharacter(c *game.Character) error {
	return r.db.Create(c).Error
}

func (r *sqliteRepository) FindCharacterByUUID(uuid string) (*game.Character, error) {
	var c game.Character
	if err := r.db.Where("character_uuid = ?", uuid).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) SaveCharacter(c *game.Character) error {
	return r.db.Save(c).Error
}

func (r *sqliteRepository) CreateSession(s *game.Session) error {
	return r.db.Create(s).Error
}

func (r *sqliteRepository) FindSessionByUUID(uuid string) (*game.Session, error) {
	var s game.Session
	if err := r.db.Where("session_uuid = ?", uuid).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sqliteRepository) SaveSession(s *game.Session) error {
	return r.db.Save(s).Error
}

func (r *sqliteRepository) SaveMessage(m *game.Message) error {
	return r.db.Create(m).Error
}

func (r *sqliteRepository) RecentMessages(sessionUUID string, limit int, roles []string) ([]game.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch the newest rows first so the limit keeps recent history,
	// then reverse into chronological order for the caller.
	var msgs []game.Message
	q := r.db.Where("session_uuid = ?", sessionUUID)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	if err := q.Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *sqliteRepository) GetCachedNarrative(fingerprint string) (string, bool, error) {
	var e game.NarrativeCacheEntry
	if err := r.db.Where("fingerprint = ?", fingerprint).First(&e).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	if time.Now().After(e.ExpiresAt) {
		// Expired rows behave as misses; leave cleanup to the next upsert.
		return "", false, nil
	}
	return e.Response, true, nil
}

func (r *sqliteRepository) SaveCachedNarrative(fingerprint, response string, ttl time.Duration) error {
	e := game.NarrativeCacheEntry{
		Fingerprint: fingerprint,
		Response:    response,
		ExpiresAt:   time.Now().Add(ttl),
	}
	// Upsert keyed by fingerprint so a refreshed response replaces the
	// expired one instead of failing on the unique constraint.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.AssignmentColumns([]string{"response", "expires_at"}),
	}).Create(&e).Error
}
