package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.ArticleRepository      = (*MockArticleRepository)(nil)
	_ repository.TagRepository          = (*MockTagRepository)(nil)
	_ repository.MemberRepository       = (*MockMemberRepository)(nil)
	_ repository.ActivityRepository     = (*MockActivityRepository)(nil)
	_ repository.NotificationRepository = (*MockNotificationRepository)(nil)
	_ repository.AnalyticsRepository    = (*MockAnalyticsRepository)(nil)
	_ repository.VisitorRepository      = (*MockVisitorRepository)(nil)
)

// MockStore wires the in-memory repositories together so article reads see tag links
type MockStore struct {
	Articles      *MockArticleRepository
	Tags          *MockTagRepository
	Members       *MockMemberRepository
	Activity      *MockActivityRepository
	Notifications *MockNotificationRepository
	Analytics     *MockAnalyticsRepository
	Visitors      *MockVisitorRepository
}

func NewMockStore() *MockStore {
	tags := NewMockTagRepository()
	return &MockStore{
		Articles:      NewMockArticleRepository(tags),
		Tags:          tags,
		Members:       NewMockMemberRepository(),
		Activity:      NewMockActivityRepository(),
		Notifications: NewMockNotificationRepository(),
		Analytics:     NewMockAnalyticsRepository(),
		Visitors:      NewMockVisitorRepository(),
	}
}

// Repositories returns the store as repository interfaces. withVisitors controls
// whether visitor deduplication is available.
func (s *MockStore) Repositories(withVisitors bool) *repository.Repositories {
	repos := &repository.Repositories{
		Article:      s.Articles,
		Tag:          s.Tags,
		Member:       s.Members,
		Activity:     s.Activity,
		Notification: s.Notifications,
		Analytics:    s.Analytics,
	}
	if withVisitors {
		repos.Visitor = s.Visitors
	}
	return repos
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	mu             sync.Mutex
	Articles       map[string]*models.Article
	TagSource      *MockTagRepository
	InsertError    error
	UpdateError    error
	SlugCheckError error
	CreateCalls    int
}

func NewMockArticleRepository(tags *MockTagRepository) *MockArticleRepository {
	return &MockArticleRepository{
		Articles:  make(map[string]*models.Article),
		TagSource: tags,
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	if m.slugTaken(article.ProjectID, article.Slug, article.ID) {
		return repository.ErrDuplicateSlug
	}
	stored := *article
	stored.Tags = nil
	m.Articles[article.ID] = &stored
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return m.withTags(stored), nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, projectID, slug, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SlugCheckError != nil {
		return false, m.SlugCheckError
	}
	return m.slugTaken(projectID, slug, excludeID), nil
}

func (m *MockArticleRepository) Update(ctx context.Context, id string, c *models.ArticleChanges) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	a, ok := m.Articles[id]
	if !ok {
		return false, nil
	}
	if c.Slug != nil && m.slugTaken(a.ProjectID, *c.Slug, id) {
		return false, repository.ErrDuplicateSlug
	}

	if c.Title != nil {
		a.Title = *c.Title
	}
	if c.Slug != nil {
		a.Slug = *c.Slug
	}
	if c.Excerpt != nil {
		a.Excerpt = emptyToNil(*c.Excerpt)
	}
	if c.Content != nil {
		a.Content = *c.Content
	}
	if c.Category != nil {
		a.Category = emptyToNil(*c.Category)
	}
	if c.Status != nil {
		a.Status = *c.Status
	}
	if c.Featured != nil {
		a.Featured = *c.Featured
	}
	if c.CoverImage != nil {
		a.CoverImage = emptyToNil(*c.CoverImage)
	}
	if c.SEOTitle != nil {
		a.SEOTitle = emptyToNil(*c.SEOTitle)
	}
	if c.SEODescription != nil {
		a.SEODescription = emptyToNil(*c.SEODescription)
	}
	if c.ScheduledAt != nil {
		t := *c.ScheduledAt
		a.ScheduledAt = &t
	}
	if c.ReadingTime != nil {
		a.ReadingTime = *c.ReadingTime
	}
	if c.PublishedAt != nil && a.PublishedAt == nil {
		t := *c.PublishedAt
		a.PublishedAt = &t
	}
	a.UpdatedAt = c.UpdatedAt
	return true, nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Articles[id]; !ok {
		return false, nil
	}
	delete(m.Articles, id)
	if m.TagSource != nil {
		m.TagSource.cascade(id)
	}
	return true, nil
}

func (m *MockArticleRepository) MarkPublished(ctx context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.Articles[id]
	if !ok || a.Status == models.StatusPublished {
		return false, nil
	}
	a.Status = models.StatusPublished
	if a.PublishedAt == nil {
		t := at
		a.PublishedAt = &t
	}
	a.UpdatedAt = at
	return true, nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, error) {
	matched := m.filtered(filter)

	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (m *MockArticleRepository) CountFiltered(ctx context.Context, filter *models.ArticleFilter) (int, error) {
	return len(m.filtered(filter)), nil
}

func (m *MockArticleRepository) IncrementViews(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.Articles[id]
	if !ok {
		return false, nil
	}
	a.ViewCount++
	return true, nil
}

func (m *MockArticleRepository) ListDueScheduled(ctx context.Context, before time.Time, limit int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []*models.Article
	for _, a := range m.Articles {
		if a.Status == models.StatusScheduled && a.ScheduledAt != nil && !a.ScheduledAt.After(before) {
			due = append(due, m.withTags(a))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(*due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Articles), nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, filter *models.ArticleFilter, callback func(*models.Article) error) error {
	for _, a := range m.filtered(filter) {
		if err := callback(a); err != nil {
			return err
		}
	}
	return nil
}

// filtered returns copies of all matching articles in the filter's sort order
func (m *MockArticleRepository) filtered(f *models.ArticleFilter) []*models.Article {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Article
	for _, stored := range m.Articles {
		a := m.withTags(stored)
		if matches(a, f) {
			out = append(out, a)
		}
	}

	less := sortKey(f.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		if f.Order == "asc" {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

func (m *MockArticleRepository) withTags(stored *models.Article) *models.Article {
	a := *stored
	a.Tags = []string{}
	if m.TagSource != nil {
		a.Tags = m.TagSource.TagNames(a.ID)
	}
	return &a
}

func (m *MockArticleRepository) slugTaken(projectID, slug, excludeID string) bool {
	for id, a := range m.Articles {
		if id != excludeID && a.ProjectID == projectID && a.Slug == slug {
			return true
		}
	}
	return false
}

func matches(a *models.Article, f *models.ArticleFilter) bool {
	if f.ProjectID != "" && a.ProjectID != f.ProjectID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Category != "" && (a.Category == nil || *a.Category != f.Category) {
		return false
	}
	if f.AuthorID != "" && a.AuthorID != f.AuthorID {
		return false
	}
	if f.Featured != nil && a.Featured != *f.Featured {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		excerpt := ""
		if a.Excerpt != nil {
			excerpt = *a.Excerpt
		}
		if !strings.Contains(strings.ToLower(a.Title+"\n"+excerpt+"\n"+a.Content), needle) {
			return false
		}
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range a.Tags {
				if want == have {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortKey(field string) func(a, b *models.Article) bool {
	switch field {
	case "title":
		return func(a, b *models.Article) bool { return a.Title < b.Title }
	case "view_count":
		return func(a, b *models.Article) bool { return a.ViewCount < b.ViewCount }
	case "updated_at":
		return func(a, b *models.Article) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "published_at":
		return func(a, b *models.Article) bool {
			if a.PublishedAt == nil || b.PublishedAt == nil {
				return a.PublishedAt == nil && b.PublishedAt != nil
			}
			return a.PublishedAt.Before(*b.PublishedAt)
		}
	default:
		return func(a, b *models.Article) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type tagLink struct {
	tagID    string
	position int
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	mu     sync.Mutex
	Tags   map[string]*models.Tag
	bySlug map[string]string
	links  map[string][]tagLink
	nextID int
}

func NewMockTagRepository() *MockTagRepository {
	return &MockTagRepository{
		Tags:   make(map[string]*models.Tag),
		bySlug: make(map[string]string),
		links:  make(map[string][]tagLink),
	}
}

// TagNames returns an article's tag names in position order
func (m *MockTagRepository) TagNames(articleID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := []string{}
	for _, l := range m.sortedLinks(articleID) {
		names = append(names, m.Tags[l.tagID].Name)
	}
	return names
}

// UsageCount returns the stored usage_count for a tag slug, or -1 if unknown
func (m *MockTagRepository) UsageCount(slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.bySlug[slug]
	if !ok {
		return -1
	}
	return m.Tags[id].UsageCount
}

func (m *MockTagRepository) ArticleTags(ctx context.Context, articleID string) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tags := []*models.Tag{}
	for _, l := range m.sortedLinks(articleID) {
		t := *m.Tags[l.tagID]
		tags = append(tags, &t)
	}
	return tags, nil
}

func (m *MockTagRepository) Ensure(ctx context.Context, name, slug string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.bySlug[slug]; ok {
		return id, nil
	}
	m.nextID++
	id := fmt.Sprintf("tag-%d", m.nextID)
	m.Tags[id] = &models.Tag{ID: id, Name: name, Slug: slug, CreatedAt: time.Now()}
	m.bySlug[slug] = id
	return id, nil
}

func (m *MockTagRepository) Attach(ctx context.Context, articleID, tagID string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links[articleID] {
		if l.tagID == tagID {
			return nil
		}
	}
	m.links[articleID] = append(m.links[articleID], tagLink{tagID: tagID, position: position})
	if t, ok := m.Tags[tagID]; ok {
		t.UsageCount++
	}
	return nil
}

func (m *MockTagRepository) Detach(ctx context.Context, articleID, tagID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	links := m.links[articleID]
	for i, l := range links {
		if l.tagID == tagID {
			m.links[articleID] = append(links[:i:i], links[i+1:]...)
			m.release(tagID)
			return nil
		}
	}
	return nil
}

func (m *MockTagRepository) SetPosition(ctx context.Context, articleID, tagID string, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, l := range m.links[articleID] {
		if l.tagID == tagID {
			m.links[articleID][i].position = position
		}
	}
	return nil
}

func (m *MockTagRepository) DetachAll(ctx context.Context, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links[articleID] {
		m.release(l.tagID)
	}
	delete(m.links, articleID)
	return nil
}

func (m *MockTagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tags := make([]*models.Tag, 0, len(m.Tags))
	for _, t := range m.Tags {
		copied := *t
		tags = append(tags, &copied)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].UsageCount != tags[j].UsageCount {
			return tags[i].UsageCount > tags[j].UsageCount
		}
		return tags[i].Name < tags[j].Name
	})
	return tags, nil
}

func (m *MockTagRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tags), nil
}

// cascade drops an article's links without touching counts, like ON DELETE CASCADE
func (m *MockTagRepository) cascade(articleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, articleID)
}

func (m *MockTagRepository) release(tagID string) {
	if t, ok := m.Tags[tagID]; ok && t.UsageCount > 0 {
		t.UsageCount--
	}
}

func (m *MockTagRepository) sortedLinks(articleID string) []tagLink {
	links := append([]tagLink(nil), m.links[articleID]...)
	sort.SliceStable(links, func(i, j int) bool { return links[i].position < links[j].position })
	return links
}

// MockMemberRepository is a mock implementation of MemberRepository
type MockMemberRepository struct {
	mu    sync.Mutex
	Roles map[string]map[string]string // project -> user -> role
}

func NewMockMemberRepository() *MockMemberRepository {
	return &MockMemberRepository{Roles: make(map[string]map[string]string)}
}

// AddMember grants a user a role in a project
func (m *MockMemberRepository) AddMember(projectID, userID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Roles[projectID] == nil {
		m.Roles[projectID] = make(map[string]string)
	}
	m.Roles[projectID][userID] = role
}

func (m *MockMemberRepository) GetRole(ctx context.Context, projectID, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Roles[projectID][userID], nil
}

func (m *MockMemberRepository) ListUserIDs(ctx context.Context, projectID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.Roles[projectID]))
	for id := range m.Roles[projectID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mu       sync.Mutex
	Entries  []*models.ActivityLog
	LogError error
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{Entries: make([]*models.ActivityLog, 0)}
}

func (m *MockActivityRepository) Log(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LogError != nil {
		return m.LogError
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// ByAction returns the entries recorded for one action and entity
func (m *MockActivityRepository) ByAction(action models.ActivityAction, entityID string) []*models.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.ActivityLog
	for _, e := range m.Entries {
		if e.Action == action && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mu            sync.Mutex
	Notifications []*models.Notification
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{Notifications: make([]*models.Notification, 0)}
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Notifications = append(m.Notifications, notifications...)
	return len(notifications), nil
}

// MockAnalyticsRepository is a mock implementation of AnalyticsRepository
type MockAnalyticsRepository struct {
	mu   sync.Mutex
	Rows map[string]*models.ArticleAnalytics
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{Rows: make(map[string]*models.ArticleAnalytics)}
}

// Day returns the stored row for an article on a day, or nil
func (m *MockAnalyticsRepository) Day(articleID string, day time.Time) *models.ArticleAnalytics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rows[analyticsKey(articleID, day)]
}

func (m *MockAnalyticsRepository) RecordView(ctx context.Context, articleID string, day time.Time, unique bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := analyticsKey(articleID, day)
	row, ok := m.Rows[key]
	if !ok {
		d := day.UTC()
		row = &models.ArticleAnalytics{
			ArticleID: articleID,
			Date:      time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		}
		m.Rows[key] = row
	}
	row.Views++
	if unique {
		row.UniqueViews++
	}
	return nil
}

func (m *MockAnalyticsRepository) ListDaily(ctx context.Context, articleID string, from, to time.Time) ([]*models.ArticleAnalytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo := analyticsKey(articleID, from)
	hi := analyticsKey(articleID, to)
	out := []*models.ArticleAnalytics{}
	for key, row := range m.Rows {
		if row.ArticleID == articleID && key >= lo && key <= hi {
			copied := *row
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func analyticsKey(articleID string, day time.Time) string {
	return articleID + "|" + day.UTC().Format("2006-01-02")
}

// MockVisitorRepository is a mock implementation of VisitorRepository
type MockVisitorRepository struct {
	mu   sync.Mutex
	Seen map[string]bool
}

func NewMockVisitorRepository() *MockVisitorRepository {
	return &MockVisitorRepository{Seen: make(map[string]bool)}
}

func (m *MockVisitorRepository) MarkVisit(ctx context.Context, articleID, visitorID string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := analyticsKey(articleID, day) + "|" + visitorID
	if m.Seen[key] {
		return false, nil
	}
	m.Seen[key] = true
	return true, nil
}
