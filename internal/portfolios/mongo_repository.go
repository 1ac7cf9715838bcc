package portfolios

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding portfolio documents.
const CollectionName = "portfolios"

type mongoTheme struct {
	PrimaryColor    string `bson:"primaryColor"`
	SecondaryColor  string `bson:"secondaryColor"`
	FontFamily      string `bson:"fontFamily"`
	BackgroundColor string `bson:"backgroundColor"`
	TextColor       string `bson:"textColor"`
}

type mongoSEO struct {
	Title       string   `bson:"title"`
	Description string   `bson:"description"`
	Keywords    []string `bson:"keywords"`
}

type mongoAnalytics struct {
	GoogleAnalyticsID string `bson:"googleAnalyticsId,omitempty"`
}

type mongoSettings struct {
	SEO       mongoSEO        `bson:"seo"`
	Domain    string          `bson:"domain,omitempty"`
	Analytics *mongoAnalytics `bson:"analytics,omitempty"`
}

// mongoPortfolio is the stored document shape. Sections are embedded subdocuments.
// Documents written before versioning have no version field and decode as version 0.
type mongoPortfolio struct {
	ID            bson.ObjectID `bson:"_id"`
	OwnerID       string        `bson:"userId"`
	Name          string        `bson:"name"`
	Slug          string        `bson:"slug"`
	Sections      []bson.D      `bson:"sections"`
	Theme         mongoTheme    `bson:"theme"`
	Settings      mongoSettings `bson:"settings"`
	Status        string        `bson:"status"`
	Version       int64         `bson:"version"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt"`
	PublishedAt   *time.Time    `bson:"publishedAt,omitempty"`
	DeploymentURL string        `bson:"deploymentUrl,omitempty"`
	GitHubRepo    string        `bson:"githubRepo,omitempty"`
}

// MongoRepository stores portfolios as MongoDB documents.
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the repository to the portfolios collection of database.
func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: database.Collection(CollectionName)}
}

// EnsureIndexes creates the slug and owner indexes when missing.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}},
		},
	})
	return err
}

// ValidID accepts hexadecimal ObjectIDs only.
func (r *MongoRepository) ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func (r *MongoRepository) Insert(ctx context.Context, portfolio Portfolio) (Portfolio, error) {
	document, err := documentFromPortfolio(portfolio)
	if err != nil {
		return Portfolio{}, err
	}
	document.ID = bson.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, document); err != nil {
		return Portfolio{}, err
	}
	portfolio.ID = document.ID.Hex()
	return portfolio, nil
}

func (r *MongoRepository) FindOne(ctx context.Context, filter Filter) (Portfolio, bool, error) {
	query, ok := r.filterDocument(filter)
	if !ok {
		return Portfolio{}, false, nil
	}
	var document mongoPortfolio
	err := r.collection.FindOne(ctx, query).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Portfolio{}, false, nil
	}
	if err != nil {
		return Portfolio{}, false, err
	}
	portfolio, err := document.toPortfolio()
	if err != nil {
		return Portfolio{}, false, err
	}
	return portfolio, true, nil
}

func (r *MongoRepository) FindByOwner(ctx context.Context, ownerID string) ([]Portfolio, error) {
	cursor, err := r.collection.Find(ctx,
		bson.D{{Key: "userId", Value: ownerID}},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	portfolios := []Portfolio{}
	for cursor.Next(ctx) {
		var document mongoPortfolio
		if err := cursor.Decode(&document); err != nil {
			return nil, err
		}
		portfolio, err := document.toPortfolio()
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, portfolio)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return portfolios, nil
}

func (r *MongoRepository) Replace(ctx context.Context, portfolio Portfolio, expectedVersion int64) (bool, error) {
	objectID, err := bson.ObjectIDFromHex(portfolio.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidPortfolioID, portfolio.ID)
	}
	document, err := documentFromPortfolio(portfolio)
	if err != nil {
		return false, err
	}
	document.ID = objectID
	result, err := r.collection.ReplaceOne(ctx, replaceFilter(objectID, portfolio.OwnerID, expectedVersion), document)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// replaceFilter matches the owner's document at expectedVersion. Version 0 also
// matches documents that carry no version field.
func replaceFilter(objectID bson.ObjectID, ownerID string, expectedVersion int64) bson.D {
	version := bson.E{Key: "version", Value: expectedVersion}
	if expectedVersion == 0 {
		version.Value = bson.D{{Key: "$in", Value: bson.A{int64(0), nil}}}
	}
	return bson.D{
		{Key: "_id", Value: objectID},
		{Key: "userId", Value: ownerID},
		version,
	}
}

func (r *MongoRepository) Delete(ctx context.Context, id string, ownerID string) (bool, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	result, err := r.collection.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: objectID},
		{Key: "userId", Value: ownerID},
	})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *MongoRepository) filterDocument(filter Filter) (bson.D, bool) {
	query := bson.D{}
	if filter.ID != "" {
		objectID, err := bson.ObjectIDFromHex(filter.ID)
		if err != nil {
			return nil, false
		}
		query = append(query, bson.E{Key: "_id", Value: objectID})
	}
	if filter.OwnerID != "" {
		query = append(query, bson.E{Key: "userId", Value: filter.OwnerID})
	}
	if filter.Slug != "" {
		query = append(query, bson.E{Key: "slug", Value: filter.Slug})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: string(filter.Status)})
	}
	return query, true
}

// sectionToDocument converts the JSON wire form of a section into an embedded subdocument.
func sectionToDocument(section sections.Section) (bson.D, error) {
	encoded, err := json.Marshal(section)
	if err != nil {
		return nil, err
	}
	var document bson.D
	if err := bson.UnmarshalExtJSON(encoded, false, &document); err != nil {
		return nil, err
	}
	return document, nil
}

func sectionFromDocument(document bson.D) (sections.Section, error) {
	encoded, err := bson.MarshalExtJSON(document, false, false)
	if err != nil {
		return sections.Section{}, err
	}
	var section sections.Section
	if err := json.Unmarshal(encoded, &section); err != nil {
		return sections.Section{}, err
	}
	return section, nil
}

func documentFromPortfolio(portfolio Portfolio) (mongoPortfolio, error) {
	embedded := make([]bson.D, 0, len(portfolio.Sections))
	for _, section := range portfolio.Sections {
		document, err := sectionToDocument(section)
		if err != nil {
			return mongoPortfolio{}, fmt.Errorf("encode section %s: %w", section.ID, err)
		}
		embedded = append(embedded, document)
	}

	keywords := portfolio.Settings.SEO.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	settings := mongoSettings{
		SEO: mongoSEO{
			Title:       portfolio.Settings.SEO.Title,
			Description: portfolio.Settings.SEO.Description,
			Keywords:    keywords,
		},
		Domain: portfolio.Settings.Domain,
	}
	if portfolio.Settings.Analytics != nil {
		settings.Analytics = &mongoAnalytics{GoogleAnalyticsID: portfolio.Settings.Analytics.GoogleAnalyticsID}
	}

	return mongoPortfolio{
		OwnerID:  portfolio.OwnerID,
		Name:     portfolio.Name,
		Slug:     portfolio.Slug,
		Sections: embedded,
		Theme: mongoTheme{
			PrimaryColor:    portfolio.Theme.PrimaryColor,
			SecondaryColor:  portfolio.Theme.SecondaryColor,
			FontFamily:      portfolio.Theme.FontFamily,
			BackgroundColor: portfolio.Theme.BackgroundColor,
			TextColor:       portfolio.Theme.TextColor,
		},
		Settings:      settings,
		Status:        string(portfolio.Status),
		Version:       portfolio.Version,
		CreatedAt:     portfolio.CreatedAt,
		UpdatedAt:     portfolio.UpdatedAt,
		PublishedAt:   portfolio.PublishedAt,
		DeploymentURL: portfolio.DeploymentURL,
		GitHubRepo:    portfolio.GitHubRepo,
	}, nil
}

func (document mongoPortfolio) toPortfolio() (Portfolio, error) {
	collection := make([]sections.Section, 0, len(document.Sections))
	for _, embedded := range document.Sections {
		section, err := sectionFromDocument(embedded)
		if err != nil {
			return Portfolio{}, fmt.Errorf("decode sections of %s: %w", document.ID.Hex(), err)
		}
		collection = append(collection, section)
	}

	settings := Settings{
		SEO: SEO{
			Title:       document.Settings.SEO.Title,
			Description: document.Settings.SEO.Description,
			Keywords:    document.Settings.SEO.Keywords,
		},
		Domain: document.Settings.Domain,
	}
	if settings.SEO.Keywords == nil {
		settings.SEO.Keywords = []string{}
	}
	if document.Settings.Analytics != nil {
		settings.Analytics = &Analytics{GoogleAnalyticsID: document.Settings.Analytics.GoogleAnalyticsID}
	}

	portfolio := Portfolio{
		ID:       document.ID.Hex(),
		OwnerID:  document.OwnerID,
		Name:     document.Name,
		Slug:     document.Slug,
		Sections: collection,
		Theme: Theme{
			PrimaryColor:    document.Theme.PrimaryColor,
			SecondaryColor:  document.Theme.SecondaryColor,
			FontFamily:      document.Theme.FontFamily,
			BackgroundColor: document.Theme.BackgroundColor,
			TextColor:       document.Theme.TextColor,
		},
		Settings:      settings,
		Status:        Status(document.Status),
		Version:       document.Version,
		CreatedAt:     document.CreatedAt.UTC(),
		UpdatedAt:     document.UpdatedAt.UTC(),
		DeploymentURL: document.DeploymentURL,
		GitHubRepo:    document.GitHubRepo,
	}
	if document.PublishedAt != nil {
		publishedAt := document.PublishedAt.UTC()
		portfolio.PublishedAt = &publishedAt
	}
	return portfolio, nil
}
