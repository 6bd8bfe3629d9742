package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	rulesCollection     = "notification_rules"
	templatesCollection = "notification_templates"
)

const templateCacheTTL = 5 * time.Minute

// TemplateCache holds recently loaded templates so rule evaluation does
// not hit the database for every matched entity.
type TemplateCache struct {
	mu      sync.RWMutex
	entries map[string]templateEntry
	ttl     time.Duration
}

type templateEntry struct {
	template *domain.NotificationTemplate
	loadedAt time.Time
}

// NewTemplateCache creates a template cache with the given TTL.
func NewTemplateCache(ttl time.Duration) *TemplateCache {
	return &TemplateCache{
		entries: make(map[string]templateEntry),
		ttl:     ttl,
	}
}

// Get returns a cached template, or false when absent or expired.
func (c *TemplateCache) Get(key string) (*domain.NotificationTemplate, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(entry.loadedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.template, true
}

// Set stores a template in the cache.
func (c *TemplateCache) Set(key string, template *domain.NotificationTemplate) {
	c.mu.Lock()
	c.entries[key] = templateEntry{template: template, loadedAt: time.Now()}
	c.mu.Unlock()
}

// Invalidate removes a template from the cache.
func (c *TemplateCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// RuleRepository handles notification rule and template data.
type RuleRepository struct {
	client *mongodb.MongoClient
	cache  *TemplateCache
}

// NewRuleRepository creates a new rule repository with template caching.
func NewRuleRepository(client *mongodb.MongoClient) *RuleRepository {
	return &RuleRepository{
		client: client,
		cache:  NewTemplateCache(templateCacheTTL),
	}
}

// EnsureIndexes creates the rule and template indexes.
func (r *RuleRepository) EnsureIndexes(ctx context.Context) error {
	ruleIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "trigger_event", Value: 1},
				{Key: "is_active", Value: 1},
			},
			Options: options.Index().SetName("event_active_idx"),
		},
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("company_created_idx"),
		},
	}
	if err := r.client.CreateIndexes(ctx, rulesCollection, ruleIndexes); err != nil {
		return err
	}

	templateIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "company_id", Value: 1},
				{Key: "name", Value: 1},
			},
			Options: options.Index().SetName("company_name_idx").SetUnique(true),
		},
	}
	return r.client.CreateIndexes(ctx, templatesCollection, templateIndexes)
}

// CreateRule creates a new notification rule.
func (r *RuleRepository) CreateRule(ctx context.Context, rule *domain.NotificationRule) error {
	rule.ID = primitive.NewObjectID()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	_, err := r.client.Collection(rulesCollection).InsertOne(ctx, rule)
	return err
}

// FindActiveByEvent returns all active rules for a trigger event across
// every company. The evaluator partitions the results itself.
func (r *RuleRepository) FindActiveByEvent(ctx context.Context, event domain.TriggerEvent) ([]*domain.NotificationRule, error) {
	filter := bson.M{
		"trigger_event": event,
		"is_active":     true,
	}

	cursor, err := r.client.Collection(rulesCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []*domain.NotificationRule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// FindRules returns a company's rules, newest first.
func (r *RuleRepository) FindRules(ctx context.Context, companyID string) ([]*domain.NotificationRule, error) {
	filter := bson.M{"company_id": companyID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.client.Collection(rulesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []*domain.NotificationRule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// SetRuleActive flips a rule's active flag.
func (r *RuleRepository) SetRuleActive(ctx context.Context, id primitive.ObjectID, companyID string, active bool) error {
	filter := bson.M{"_id": id, "company_id": companyID}
	update := bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}}

	result, err := r.client.Collection(rulesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CreateTemplate creates a new notification template.
func (r *RuleRepository) CreateTemplate(ctx context.Context, template *domain.NotificationTemplate) error {
	template.ID = primitive.NewObjectID()
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()

	_, err := r.client.Collection(templatesCollection).InsertOne(ctx, template)
	if err != nil {
		return err
	}
	r.cache.Invalidate(template.ID.Hex())
	return nil
}

// FindTemplateByID loads a template, consulting the cache first.
func (r *RuleRepository) FindTemplateByID(ctx context.Context, id primitive.ObjectID) (*domain.NotificationTemplate, error) {
	cacheKey := id.Hex()
	if template, ok := r.cache.Get(cacheKey); ok {
		return template, nil
	}

	var template domain.NotificationTemplate
	err := r.client.Collection(templatesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err != nil {
		return nil, err
	}

	r.cache.Set(cacheKey, &template)
	return &template, nil
}

// FindTemplates returns a company's templates, newest first.
func (r *RuleRepository) FindTemplates(ctx context.Context, companyID string) ([]*domain.NotificationTemplate, error) {
	filter := bson.M{"company_id": companyID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.client.Collection(templatesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []*domain.NotificationTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}
