package service

import (
	"context"
	"errors"
	"strings"

	"contractreview-backend/diff"
	"contractreview-backend/models"
	"contractreview-backend/repository"
	"contractreview-backend/storage"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrNothingToApply = errors.New("no proposed edits selected")
	ErrStorageNotSet  = errors.New("storage not set")
)

// Skip reasons
const (
	SkipAnchorNotFound = "anchor text not found"
	SkipNoText         = "edit has no replacement text"
	SkipUnknown        = "no proposed edit with this id"
)

// DraftService composes revised contract drafts from accepted edits
type DraftService struct {
	reviews ReviewStore
	storage storage.Storage
	engine  *diff.Engine
	logger  *zap.Logger
}

// DraftServiceOption is a functional option for DraftService
type DraftServiceOption func(*DraftService)

// DraftWithReviewStore sets the review store
func DraftWithReviewStore(store ReviewStore) DraftServiceOption {
	return func(s *DraftService) {
		s.reviews = store
	}
}

// DraftWithStorage sets where composed drafts are written
func DraftWithStorage(st storage.Storage) DraftServiceOption {
	return func(s *DraftService) {
		s.storage = st
	}
}

// DraftWithDiffEngine sets the engine used for the redline
func DraftWithDiffEngine(e *diff.Engine) DraftServiceOption {
	return func(s *DraftService) {
		s.engine = e
	}
}

// DraftWithLogger sets the logger
func DraftWithLogger(logger *zap.Logger) DraftServiceOption {
	return func(s *DraftService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDraftService creates a new draft service
func NewDraftService(opts ...DraftServiceOption) *DraftService {
	s := &DraftService{
		engine: diff.NewEngine(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SkippedEdit is a selected edit that could not be applied
type SkippedEdit struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Composition is a draft with its redline against the original
type Composition struct {
	Text    string        `json:"text"`
	Blocks  []diff.Block  `json:"blocks"`
	HTML    string        `json:"html"`
	Stats   diff.Stats    `json:"stats"`
	Applied []string      `json:"applied"`
	Skipped []SkippedEdit `json:"skipped"`
}

// Compose applies the selected edits to content. An edit is selected when
// its id (or the id of its decision) is accepted, or when it applies by
// default and was not rejected. Each edit replaces the first occurrence of
// its previous text in the working draft; edits are applied in decision order.
func (s *DraftService) Compose(content string, ds []models.NormalizedDecision, accepted, rejected []string) *Composition {
	acceptedSet := lo.SliceToMap(accepted, func(id string) (string, struct{}) { return strings.ToLower(id), struct{}{} })
	rejectedSet := lo.SliceToMap(rejected, func(id string) (string, struct{}) { return strings.ToLower(id), struct{}{} })
	has := func(set map[string]struct{}, d models.NormalizedDecision) bool {
		_, byDecision := set[strings.ToLower(d.ID)]
		_, byEdit := set[strings.ToLower(d.ProposedEdit.ID)]
		return byDecision || byEdit
	}

	c := &Composition{Text: content, Applied: make([]string, 0), Skipped: make([]SkippedEdit, 0)}
	seen := make(map[string]bool)
	matched := make(map[string]bool)

	for _, d := range ds {
		edit := d.ProposedEdit
		if edit == nil {
			continue
		}
		key := strings.ToLower(edit.ID)
		if has(acceptedSet, d) {
			matched[strings.ToLower(d.ID)] = true
			matched[key] = true
		}
		if seen[key] {
			continue
		}
		if has(rejectedSet, d) || !(has(acceptedSet, d) || edit.ApplyByDefault) {
			continue
		}
		seen[key] = true

		before, after := edit.Before(), edit.After()
		switch {
		case before == "" || after == "":
			c.Skipped = append(c.Skipped, SkippedEdit{ID: edit.ID, Reason: SkipNoText})
		case !strings.Contains(c.Text, before):
			c.Skipped = append(c.Skipped, SkippedEdit{ID: edit.ID, Reason: SkipAnchorNotFound})
		default:
			c.Text = strings.Replace(c.Text, before, after, 1)
			c.Applied = append(c.Applied, edit.ID)
		}
	}

	for _, id := range accepted {
		if !matched[strings.ToLower(id)] {
			c.Skipped = append(c.Skipped, SkippedEdit{ID: id, Reason: SkipUnknown})
		}
	}

	c.Blocks = s.engine.TrackChanges(content, c.Text)
	c.HTML = diff.RenderHTML(c.Blocks)
	c.Stats = diff.Summarize(s.engine.LineDiff(content, c.Text))
	return c
}

// ComposeDraftRequest represents a request to compose a review draft
type ComposeDraftRequest struct {
	ReviewID uuid.UUID
	Accepted []string
	Rejected []string
}

// ComposeDraftResult represents a stored draft
type ComposeDraftResult struct {
	*Composition
	DraftPath string `json:"draft_path,omitempty"`
}

// ComposeDraft composes the review's draft, stores the revised text and
// records its path on the review.
func (s *DraftService) ComposeDraft(ctx context.Context, req ComposeDraftRequest) (*ComposeDraftResult, error) {
	if s.reviews == nil {
		return nil, ErrRepositoryNotSet
	}

	review, err := s.reviews.GetByID(ctx, req.ReviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if review.Analysis == nil {
		return nil, ErrReviewNotAnalyzed
	}

	c := s.Compose(review.Content, review.Decisions, req.Accepted, req.Rejected)
	if len(c.Applied) == 0 && len(c.Skipped) == 0 {
		return nil, ErrNothingToApply
	}
	result := &ComposeDraftResult{Composition: c}
	if len(c.Applied) == 0 {
		return result, nil
	}

	if s.storage == nil {
		return nil, ErrStorageNotSet
	}
	path, err := s.storage.Upload(ctx, uuid.New(), "draft-"+review.ID.String()+".txt", strings.NewReader(c.Text))
	if err != nil {
		return nil, eris.Wrap(err, "failed to store draft")
	}
	if err := s.reviews.SetDraftPath(ctx, review.ID, path); err != nil {
		return nil, eris.Wrap(err, "failed to record draft path")
	}
	if review.DraftPath != nil && *review.DraftPath != path {
		if err := s.storage.Delete(ctx, *review.DraftPath); err != nil {
			s.logger.Warn("failed to delete previous draft", zap.String("path", *review.DraftPath), zap.Error(err))
		}
	}

	s.logger.Info("draft composed",
		zap.String("review_id", review.ID.String()),
		zap.Int("applied", len(c.Applied)),
		zap.Int("skipped", len(c.Skipped)),
	)
	result.DraftPath = path
	return result, nil
}
