package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/internal/domain/repository"
)

var ErrNoteNotFound = errors.New("note not found")

// NoteService is the notes collaborator behind the session gate. Every call
// takes the authenticated user's id; foreign note ids are indistinguishable
// from missing ones.
type NoteService struct {
	Repo         repository.NoteRepository
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESNotesIndex string
}

func NewNoteService(repo repository.NoteRepository, logger *logrus.Logger, es *elasticsearch.Client, esNotesIndex string) *NoteService {
	return &NoteService{Repo: repo, Logger: logger, ES: es, ESNotesIndex: esNotesIndex}
}

func validateNoteBody(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return "", "", &ValidationError{Field: "note", Reason: "title and content cannot be empty"}
	}
	return title, content, nil
}

// noteID rejects malformed ids up front so the store only ever sees real UUIDs.
func noteID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNoteNotFound
	}
	return parsed.String(), nil
}

func (s *NoteService) Create(ctx context.Context, userID, title, content string) (*entity.Note, error) {
	title, content, err := validateNoteBody(title, content)
	if err != nil {
		return nil, err
	}
	n := &entity.Note{UserID: userID, Title: title, Content: content}
	if err := s.Repo.Create(ctx, n); err != nil {
		return nil, err
	}
	_ = s.indexNote(ctx, n)
	return n, nil
}

func (s *NoteService) List(ctx context.Context, userID string) ([]*entity.Note, error) {
	return s.Repo.ListByUser(ctx, userID)
}

func (s *NoteService) Get(ctx context.Context, userID, id string) (*entity.Note, error) {
	id, err := noteID(id)
	if err != nil {
		return nil, err
	}
	n, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *NoteService) Update(ctx context.Context, userID, id, title, content string) (*entity.Note, error) {
	id, err := noteID(id)
	if err != nil {
		return nil, err
	}
	title, content, err = validateNoteBody(title, content)
	if err != nil {
		return nil, err
	}
	n, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	n.Title = title
	n.Content = content
	if err := s.Repo.Update(ctx, n); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	_ = s.indexNote(ctx, n)
	return n, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, id string) (*entity.Note, error) {
	id, err := noteID(id)
	if err != nil {
		return nil, err
	}
	n, err := s.Repo.Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	s.deleteFromIndex(ctx, id)
	return n, nil
}

// indexNote mirrors the note into Elasticsearch, best effort: search lags
// rather than failing writes when the cluster is down.
func (s *NoteService) indexNote(ctx context.Context, n *entity.Note) error {
	if s.ES == nil || s.ESNotesIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         n.ID,
		"user_id":    n.UserID,
		"title":      n.Title,
		"content":    n.Content,
		"created_at": n.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": n.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESNotesIndex, DocumentID: n.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("note_id", n.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("note_id", n.ID).Warn("es index response error")
	}
	return nil
}

func (s *NoteService) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESNotesIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESNotesIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("note_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match over the caller's notes.
func (s *NoteService) Search(ctx context.Context, userID, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESNotesIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"title^2", "content"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"user_id": userID},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESNotesIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
