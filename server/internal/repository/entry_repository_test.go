package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/query"
	"github.com/maynagashev/catalog/server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryColumns = []string{"id", "title", "description", "type", "tags", "link"}

func TestEntryRepository_ListEntries(t *testing.T) {
	t.Run("Без фильтра - вся коллекция", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostgresEntryRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT id, title, description, type, tags, link FROM entries ORDER BY title`)).
			WithArgs().
			WillReturnRows(sqlmock.NewRows(entryColumns).
				AddRow("e1", "Robotics Club", "", "club", "{stem,robotics}", "").
				AddRow("e2", "Camp", "Outdoor", "camp", "{}", "https://example.com"))

		entries, err := repo.ListEntries(context.Background(), query.Build(models.FilterState{}))

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, []string{"stem", "robotics"}, entries[0].Tags)
		assert.Equal(t, []string{}, entries[1].Tags)
		assert.Equal(t, "https://example.com", entries[1].Link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("С фильтром по типам и тегам", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostgresEntryRepository(db)
		mock.ExpectQuery(regexp.QuoteMeta(
			`FROM entries WHERE type = ANY($1) AND tags @> $2::text[] ORDER BY title`)).
			WithArgs(pq.Array([]string{"x"}), pq.Array([]string{"a", "b"})).
			WillReturnRows(sqlmock.NewRows(entryColumns))

		entries, err := repo.ListEntries(context.Background(),
			query.Build(models.FilterState{Types: []string{"x"}, Tags: []string{"a", "b"}}))

		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEntryRepository_GetEntryByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewPostgresEntryRepository(db)
	q := regexp.QuoteMeta(`FROM entries WHERE id=$1`)
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	entry, err := repo.GetEntryByID(context.Background(), "missing")

	assert.Nil(t, entry)
	require.ErrorIs(t, err, repository.ErrEntryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntryRepository_Mutations(t *testing.T) {
	entry := &models.Entry{
		ID: "e1", Title: "Robotics", Description: "d", Type: "club", Tags: []string{"stem"}, Link: "",
	}

	t.Run("Создание", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostgresEntryRepository(db)
		mock.ExpectExec(`INSERT INTO entries`).
			WithArgs("e1", "Robotics", "d", "club", pq.Array([]string{"stem"}), "").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.CreateEntry(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Замена несуществующей записи", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostgresEntryRepository(db)
		mock.ExpectExec(`UPDATE entries SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.ReplaceEntry(context.Background(), entry), repository.ErrEntryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Удаление", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewPostgresEntryRepository(db)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM entries WHERE id=$1`)).
			WithArgs("e1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteEntry(context.Background(), "e1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
