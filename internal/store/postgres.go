package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

type articleRow struct {
	ID           int64     `gorm:"primaryKey"`
	Source       string    `gorm:"type:text;not null"`
	Domain       string    `gorm:"type:text;not null;uniqueIndex:idx_articles_domain_canonical,priority:1"`
	Title        string    `gorm:"type:text;not null"`
	URL          string    `gorm:"type:text;not null"`
	CanonicalURL string    `gorm:"type:text;not null;uniqueIndex:idx_articles_domain_canonical,priority:2;index"`
	NewsHash     string    `gorm:"type:varchar(12);index"`
	PublishedAt  time.Time `gorm:"type:timestamptz;not null;index:idx_articles_status_published,priority:2;index:idx_articles_geo,priority:3"`

	HazardType string `gorm:"column:disaster_type;type:text;not null;index:idx_articles_geo,priority:2"`
	Province   string `gorm:"type:text;not null;index:idx_articles_geo,priority:1"`
	Commune    string `gorm:"type:text"`
	Stage      string `gorm:"type:text"`

	Deaths           *int
	Missing          *int
	Injured          *int
	DamageBillionVND *float64
	Agency           string                            `gorm:"type:text"`
	ImpactDetails    datatypes.JSONType[domain.Impact] `gorm:"type:jsonb"`

	Summary  string `gorm:"type:text"`
	FullText string `gorm:"type:text"`
	ImageURL string `gorm:"type:text"`

	Status            string `gorm:"type:text;not null;index:idx_articles_status_published,priority:1"`
	NeedsVerification bool
	Score             float64
	RiskLevel         int
	IsTrusted         bool
	IsVIP             bool
	SensitiveLocation bool

	EventID   *int64    `gorm:"index"`
	CreatedAt time.Time `gorm:"type:timestamptz"`
}

func (articleRow) TableName() string { return "articles" }

type eventRow struct {
	ID         int64  `gorm:"primaryKey"`
	Key        string `gorm:"type:text;not null;uniqueIndex"`
	Title      string `gorm:"type:text;not null"`
	HazardType string `gorm:"column:disaster_type;type:text;not null;index:idx_events_type_started,priority:1"`
	Province   string `gorm:"type:text;not null;index:idx_events_province_started,priority:1"`
	Stage      string `gorm:"type:text"`

	StartedAt     time.Time `gorm:"type:timestamptz;not null;index:idx_events_type_started,priority:2;index:idx_events_province_started,priority:2"`
	LastUpdatedAt time.Time `gorm:"type:timestamptz;not null;index"`

	Deaths           *int
	Missing          *int
	Injured          *int
	DamageBillionVND *float64

	Confidence        float64
	SourcesCount      int
	Lat               *float64
	Lon               *float64
	RiskLevel         int
	NeedsVerification bool
	ImageURL          string                            `gorm:"type:text"`
	Details           datatypes.JSONType[domain.Impact] `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz"`
}

func (eventRow) TableName() string { return "events" }

type blacklistRow struct {
	NewsHash  string `gorm:"primaryKey;type:varchar(12)"`
	Reason    string `gorm:"type:text"`
	CreatedAt time.Time
}

func (blacklistRow) TableName() string { return "blacklist" }

// Postgres is the gorm-backed Store.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
		NowFunc:        domain.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", errors.Join(ErrUnavailable, err))
	}
	p := &Postgres{db: db}
	if err := p.Ping(ctx); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&articleRow{}, &eventRow{}, &blacklistRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return p, nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("ping postgres: %w", errors.Join(ErrUnavailable, err))
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", errors.Join(ErrUnavailable, err))
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn in a database transaction. Inside an outer transaction
// it uses a savepoint.
func (p *Postgres) Transaction(ctx context.Context, fn func(Store) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Postgres{db: tx})
	})
}

func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case unavailable(err):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func unavailable(err error) bool {
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr)
}

// CreateArticle inserts a and assigns its ID.
func (p *Postgres) CreateArticle(ctx context.Context, a *domain.Article) error {
	row := toArticleRow(a)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrap("create article", err)
	}
	a.ID, a.CreatedAt = row.ID, row.CreatedAt
	return nil
}

// UpdateArticle saves every column of a.
func (p *Postgres) UpdateArticle(ctx context.Context, a *domain.Article) error {
	row := toArticleRow(a)
	res := p.db.WithContext(ctx).Save(&row)
	if res.Error != nil {
		return wrap("update article", res.Error)
	}
	return nil
}

// GetArticle loads the article with id.
func (p *Postgres) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	var row articleRow
	if err := p.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, wrap("get article", err)
	}
	return row.article(), nil
}

// ArticleByURL finds an article of dom by original or canonical URL.
func (p *Postgres) ArticleByURL(ctx context.Context, dom, url string) (*domain.Article, error) {
	return p.firstArticle(ctx, "article by url",
		p.db.Where("domain = ? AND (url = ? OR canonical_url = ?)", dom, url, url))
}

// ArticleByCanonical finds an article by canonical URL published in [from, to].
func (p *Postgres) ArticleByCanonical(ctx context.Context, canonical string, from, to time.Time) (*domain.Article, error) {
	return p.firstArticle(ctx, "article by canonical url",
		p.db.Where("canonical_url = ? AND published_at BETWEEN ? AND ?", canonical, from, to))
}

// ArticleByTitle finds an article of dom with title published in [from, to].
func (p *Postgres) ArticleByTitle(ctx context.Context, dom, title string, from, to time.Time) (*domain.Article, error) {
	return p.firstArticle(ctx, "article by title",
		p.db.Where("domain = ? AND title = ? AND published_at BETWEEN ? AND ?", dom, title, from, to))
}

func (p *Postgres) firstArticle(ctx context.Context, op string, q *gorm.DB) (*domain.Article, error) {
	var row articleRow
	if err := q.WithContext(ctx).Order("id").First(&row).Error; err != nil {
		return nil, wrap(op, err)
	}
	return row.article(), nil
}

// ArticlesByEvent returns the articles of eventID newest first.
func (p *Postgres) ArticlesByEvent(ctx context.Context, eventID int64, withRejected bool) ([]domain.Article, error) {
	q := p.db.WithContext(ctx).Where("event_id = ?", eventID)
	if !withRejected {
		q = q.Where("status IN ?", []string{string(domain.StatusApproved), string(domain.StatusPending)})
	}
	var rows []articleRow
	if err := q.Order("published_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, wrap("articles by event", err)
	}
	out := make([]domain.Article, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].article())
	}
	return out, nil
}

// CreateEvent inserts e and assigns its ID.
func (p *Postgres) CreateEvent(ctx context.Context, e *domain.Event) error {
	row := toEventRow(e)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wrap("create event", err)
	}
	e.ID, e.CreatedAt = row.ID, row.CreatedAt
	return nil
}

// UpdateEvent saves every column of e.
func (p *Postgres) UpdateEvent(ctx context.Context, e *domain.Event) error {
	row := toEventRow(e)
	if err := p.db.WithContext(ctx).Save(&row).Error; err != nil {
		return wrap("update event", err)
	}
	return nil
}

// GetEvent loads the event with id.
func (p *Postgres) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	var row eventRow
	if err := p.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, wrap("get event", err)
	}
	return row.event(), nil
}

// DeleteEvent removes the event and detaches its articles.
func (p *Postgres) DeleteEvent(ctx context.Context, id int64) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&articleRow{}).Where("event_id = ?", id).Update("event_id", nil).Error; err != nil {
			return wrap("detach articles", err)
		}
		res := tx.Delete(&eventRow{}, id)
		if res.Error != nil {
			return wrap("delete event", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("delete event %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// EventKeyExists reports whether an event with key exists.
func (p *Postgres) EventKeyExists(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := p.db.WithContext(ctx).Model(&eventRow{}).Where("key = ?", key).Count(&n).Error; err != nil {
		return false, wrap("event key exists", err)
	}
	return n > 0, nil
}

// CandidateEvents returns events of hazardType in province updated in [from, to].
func (p *Postgres) CandidateEvents(ctx context.Context, hazardType, province string, from, to time.Time) ([]domain.Event, error) {
	var rows []eventRow
	err := p.db.WithContext(ctx).
		Where("disaster_type = ? AND province = ? AND last_updated_at BETWEEN ? AND ?", hazardType, province, from, to).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("candidate events", err)
	}
	return events(rows), nil
}

// ListEvents filters, sorts and pages the events.
func (p *Postgres) ListEvents(ctx context.Context, q EventQuery) ([]domain.Event, int, error) {
	q = normalizeQuery(q)
	db := p.db.WithContext(ctx).Model(&eventRow{})
	if !q.Since.IsZero() {
		db = db.Where("last_updated_at >= ?", q.Since)
	}
	if !q.Until.IsZero() {
		db = db.Where("started_at <= ?", q.Until)
	}
	if q.HazardType != "" {
		db = db.Where("disaster_type = ?", q.HazardType)
	}
	if q.Province != "" {
		db = db.Where("province = ?", q.Province)
	}
	if q.Title != "" {
		db = db.Where("title ILIKE ?", "%"+q.Title+"%")
	}
	if q.PublicOnly {
		db = db.Where("confidence >= ? OR (needs_verification = ? AND sources_count >= ?)", 0.8, false, 2)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, wrap("count events", err)
	}

	if q.Sort == SortImpact {
		db = db.Order("COALESCE(deaths, 0) + COALESCE(missing, 0) + COALESCE(injured, 0) DESC").
			Order("COALESCE(damage_billion_vnd, 0) DESC")
	}
	var rows []eventRow
	if err := db.Order("last_updated_at DESC, id DESC").Limit(q.Limit).Offset(q.Offset).Find(&rows).Error; err != nil {
		return nil, 0, wrap("list events", err)
	}
	return events(rows), int(total), nil
}

// EventsInRange returns the events that started in [from, to].
func (p *Postgres) EventsInRange(ctx context.Context, from, to time.Time, publicOnly bool) ([]domain.Event, error) {
	db := p.db.WithContext(ctx).Where("started_at BETWEEN ? AND ?", from, to)
	if publicOnly {
		db = db.Where("confidence >= ? OR (needs_verification = ? AND sources_count >= ?)", 0.8, false, 2)
	}
	var rows []eventRow
	if err := db.Order("started_at, id").Find(&rows).Error; err != nil {
		return nil, wrap("events in range", err)
	}
	return events(rows), nil
}

// IsBlacklisted reports whether hash is blacklisted.
func (p *Postgres) IsBlacklisted(ctx context.Context, hash string) (bool, error) {
	var n int64
	if err := p.db.WithContext(ctx).Model(&blacklistRow{}).Where("news_hash = ?", hash).Count(&n).Error; err != nil {
		return false, wrap("blacklist lookup", err)
	}
	return n > 0, nil
}

// AddBlacklist registers entry. Adding an existing hash is a no-op.
func (p *Postgres) AddBlacklist(ctx context.Context, entry domain.BlacklistEntry) error {
	row := blacklistRow{NewsHash: entry.NewsHash, Reason: entry.Reason}
	if err := p.db.WithContext(ctx).Where(blacklistRow{NewsHash: entry.NewsHash}).FirstOrCreate(&row).Error; err != nil {
		return wrap("add blacklist", err)
	}
	return nil
}

func toArticleRow(a *domain.Article) articleRow {
	return articleRow{
		ID:                a.ID,
		Source:            a.Source,
		Domain:            a.Domain,
		Title:             a.Title,
		URL:               a.URL,
		CanonicalURL:      a.CanonicalURL,
		NewsHash:          a.NewsHash,
		PublishedAt:       a.PublishedAt,
		HazardType:        a.HazardType,
		Province:          a.Province,
		Commune:           a.Commune,
		Stage:             string(a.Stage),
		Deaths:            a.Deaths,
		Missing:           a.Missing,
		Injured:           a.Injured,
		DamageBillionVND:  a.DamageBillionVND,
		Agency:            a.Agency,
		ImpactDetails:     datatypes.NewJSONType(a.ImpactDetails),
		Summary:           a.Summary,
		FullText:          a.FullText,
		ImageURL:          a.ImageURL,
		Status:            string(a.Status),
		NeedsVerification: a.NeedsVerification,
		Score:             a.Score,
		RiskLevel:         a.RiskLevel,
		IsTrusted:         a.IsTrusted,
		IsVIP:             a.IsVIP,
		SensitiveLocation: a.SensitiveLocation,
		EventID:           a.EventID,
		CreatedAt:         a.CreatedAt,
	}
}

func (r *articleRow) article() *domain.Article {
	return &domain.Article{
		ID:                r.ID,
		Source:            r.Source,
		Domain:            r.Domain,
		Title:             r.Title,
		URL:               r.URL,
		CanonicalURL:      r.CanonicalURL,
		NewsHash:          r.NewsHash,
		PublishedAt:       r.PublishedAt.UTC(),
		HazardType:        r.HazardType,
		Province:          r.Province,
		Commune:           r.Commune,
		Stage:             domain.Stage(r.Stage),
		Deaths:            r.Deaths,
		Missing:           r.Missing,
		Injured:           r.Injured,
		DamageBillionVND:  r.DamageBillionVND,
		Agency:            r.Agency,
		ImpactDetails:     r.ImpactDetails.Data(),
		Summary:           r.Summary,
		FullText:          r.FullText,
		ImageURL:          r.ImageURL,
		Status:            domain.Status(r.Status),
		NeedsVerification: r.NeedsVerification,
		Score:             r.Score,
		RiskLevel:         r.RiskLevel,
		IsTrusted:         r.IsTrusted,
		IsVIP:             r.IsVIP,
		SensitiveLocation: r.SensitiveLocation,
		EventID:           r.EventID,
		CreatedAt:         r.CreatedAt.UTC(),
	}
}

func toEventRow(e *domain.Event) eventRow {
	return eventRow{
		ID:                e.ID,
		Key:               e.Key,
		Title:             e.Title,
		HazardType:        e.HazardType,
		Province:          e.Province,
		Stage:             string(e.Stage),
		StartedAt:         e.StartedAt,
		LastUpdatedAt:     e.LastUpdatedAt,
		Deaths:            e.Deaths,
		Missing:           e.Missing,
		Injured:           e.Injured,
		DamageBillionVND:  e.DamageBillionVND,
		Confidence:        e.Confidence,
		SourcesCount:      e.SourcesCount,
		Lat:               e.Lat,
		Lon:               e.Lon,
		RiskLevel:         e.RiskLevel,
		NeedsVerification: e.NeedsVerification,
		ImageURL:          e.ImageURL,
		Details:           datatypes.NewJSONType(e.Details),
		CreatedAt:         e.CreatedAt,
	}
}

func (r *eventRow) event() *domain.Event {
	return &domain.Event{
		ID:                r.ID,
		Key:               r.Key,
		Title:             r.Title,
		HazardType:        r.HazardType,
		Province:          r.Province,
		Stage:             domain.Stage(r.Stage),
		StartedAt:         r.StartedAt.UTC(),
		LastUpdatedAt:     r.LastUpdatedAt.UTC(),
		Deaths:            r.Deaths,
		Missing:           r.Missing,
		Injured:           r.Injured,
		DamageBillionVND:  r.DamageBillionVND,
		Confidence:        r.Confidence,
		SourcesCount:      r.SourcesCount,
		Lat:               r.Lat,
		Lon:               r.Lon,
		RiskLevel:         r.RiskLevel,
		NeedsVerification: r.NeedsVerification,
		ImageURL:          r.ImageURL,
		Details:           r.Details.Data(),
		CreatedAt:         r.CreatedAt.UTC(),
	}
}

func events(rows []eventRow) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].event())
	}
	return out
}
