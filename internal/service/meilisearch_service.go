package service

import (
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const listingsIndex = "listings"

// MeiliSearchService mirrors listing writes into the search index. The
// database stays the source of truth; index writes are best-effort.
type MeiliSearchService interface {
	IndexListing(listing *model.SkillListing) error
	DeleteListing(id string) error
}

type meiliListingDoc struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	CategoryID      string   `json:"category_id"`
	SkillType       string   `json:"skill_type"`
	DifficultyLevel string   `json:"difficulty_level"`
	CreatedAt       int64    `json:"created_at"`
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	log := logger.Component("meilisearch")

	filterableAttrs := []string{"category_id", "skill_type", "difficulty_level"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	_, err := s.client.Index(listingsIndex).UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		log.Warn().Err(err).Msg("failed to update listings filterable attributes")
	}

	sortableAttrs := []string{"created_at"}
	_, err = s.client.Index(listingsIndex).UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		log.Warn().Err(err).Msg("failed to update listings sortable attributes")
	}
}

func (s *meiliSearchService) IndexListing(listing *model.SkillListing) error {
	// Hidden listings never reach the index.
	if !listing.Visible() {
		return s.DeleteListing(listing.ID.String())
	}

	doc := meiliListingDoc{
		ID:              listing.ID.String(),
		Title:           s.sanitizer.Sanitize(listing.Title),
		Description:     s.sanitizer.Sanitize(listing.Description),
		Tags:            listing.Tags,
		CategoryID:      listing.CategoryID.String(),
		SkillType:       string(listing.SkillType),
		DifficultyLevel: string(listing.DifficultyLevel),
		CreatedAt:       listing.CreatedAt.Unix(),
	}

	_, err := s.client.Index(listingsIndex).AddDocuments([]meiliListingDoc{doc}, strPtr("id"))
	return err
}

func (s *meiliSearchService) DeleteListing(id string) error {
	_, err := s.client.Index(listingsIndex).DeleteDocument(id)
	return err
}

func strPtr(s string) *string { return &s }
