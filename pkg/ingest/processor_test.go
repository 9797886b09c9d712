package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

type recordingStore struct {
	created []map[string]string
	updated []*models.Record
	deleted []string
	fail    error
}

func (s *recordingStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	return nil, nil
}

func (s *recordingStore) ListRecords(ctx context.Context, bookID string) ([]*models.Record, []models.MailingList, error) {
	return nil, nil, nil
}

func (s *recordingStore) CreateRecord(ctx context.Context, bookID string, fieldValues map[string]string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	s.created = append(s.created, fieldValues)
	return fmt.Sprintf("c%d", len(s.created)), nil
}

func (s *recordingStore) UpdateRecord(ctx context.Context, bookID string, rec *models.Record) error {
	if s.fail != nil {
		return s.fail
	}
	s.updated = append(s.updated, rec)
	return nil
}

func (s *recordingStore) DeleteRecord(ctx context.Context, bookID string, rec *models.Record) error {
	if s.fail != nil {
		return s.fail
	}
	s.deleted = append(s.deleted, rec.ID)
	return nil
}

func importMessage(t *testing.T, msg kafka.ImportMessage) *kafka.IncomingMessage {
	t.Helper()
	value, err := json.Marshal(msg)
	require.NoError(t, err)
	incoming := &kafka.IncomingMessage{Key: msg.ContactID, Value: value, Headers: map[string]string{}}
	require.NoError(t, incoming.ParseImport())
	return incoming
}

func TestProcessorHandle(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("create", func(t *testing.T) {
		store := &recordingStore{}
		p := NewProcessor(logger, store, nil)
		msg := importMessage(t, kafka.ImportMessage{
			Action: "create",
			BookID: "b1",
			Fields: map[string]string{"FirstName": "Ann"},
		})
		require.NoError(t, p.Handle(context.Background(), msg))
		require.Len(t, store.created, 1)
		assert.Equal(t, "Ann", store.created[0]["FirstName"])
	})

	t.Run("update", func(t *testing.T) {
		store := &recordingStore{}
		p := NewProcessor(logger, store, nil)
		msg := importMessage(t, kafka.ImportMessage{
			Action:    "update",
			BookID:    "b1",
			ContactID: "c9",
			Fields:    map[string]string{"LastName": "Lee"},
		})
		require.NoError(t, p.Handle(context.Background(), msg))
		require.Len(t, store.updated, 1)
		assert.Equal(t, "c9", store.updated[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		store := &recordingStore{}
		p := NewProcessor(logger, store, nil)
		msg := importMessage(t, kafka.ImportMessage{
			Action:    "delete",
			BookID:    "b1",
			ContactID: "c9",
		})
		require.NoError(t, p.Handle(context.Background(), msg))
		assert.Equal(t, []string{"c9"}, store.deleted)
	})

	t.Run("store failure propagates for retry", func(t *testing.T) {
		store := &recordingStore{fail: fmt.Errorf("db down")}
		p := NewProcessor(logger, store, nil)
		msg := importMessage(t, kafka.ImportMessage{
			Action: "create",
			BookID: "b1",
			Fields: map[string]string{"FirstName": "Ann"},
		})
		assert.Error(t, p.Handle(context.Background(), msg))
	})

	t.Run("missing book id rejected", func(t *testing.T) {
		store := &recordingStore{}
		p := NewProcessor(logger, store, nil)
		msg := importMessage(t, kafka.ImportMessage{Action: "create"})
		assert.Error(t, p.Handle(context.Background(), msg))
	})

	t.Run("unknown action dropped", func(t *testing.T) {
		store := &recordingStore{}
		p := NewProcessor(logger, store, nil)
		msg := importMessage(t, kafka.ImportMessage{Action: "replicate", BookID: "b1"})
		assert.NoError(t, p.Handle(context.Background(), msg))
		assert.Empty(t, store.created)
	})
}
