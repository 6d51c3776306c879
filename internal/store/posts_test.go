package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postColumnNames = []string{
	"id", "user_id", "username", "title", "content", "audio_file", "image",
	"created_at", "updated_at",
}

func postRow(id, userID int64, author, title string) *sqlmock.Rows {
	return sqlmock.NewRows(postColumnNames).AddRow(
		id, userID, author, title, "body", "", "", testTime, testTime,
	)
}

func TestCreatePostResolvesAuthor(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), "Hello", "body", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(postRow(4, 1, "ana", "Hello"))

	post, err := st.CreatePost(context.Background(), 1, Post{Title: "Hello", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "ana", post.Author)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostForeignRowIsNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM posts p`).
		WithArgs(int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows(postColumnNames))

	_, err := st.GetPost(context.Background(), 2, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsScopedToOwner(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows(append(postColumnNames, "total")).
		AddRow(int64(4), int64(1), "ana", "Mine", "body", "", "", testTime, testTime, int64(1))
	mock.ExpectQuery(`WHERE p\.user_id = \$1`).
		WithArgs(int64(1), 10, 0).
		WillReturnRows(rows)

	posts, total, err := st.ListPosts(context.Background(), 1, PostFilter{}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].UserID)
}

func TestBrowsePostsSearchFilter(t *testing.T) {
	st, mock := newMockStore(t)

	rows := sqlmock.NewRows(append(postColumnNames, "total")).
		AddRow(int64(4), int64(9), "bo", "Groove tips", "body", "", "", testTime, testTime, int64(1))
	mock.ExpectQuery(`ILIKE \$1`).
		WithArgs("%groove%", 10, 0).
		WillReturnRows(rows)

	posts, total, err := st.BrowsePosts(context.Background(), PostFilter{Search: "groove"}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
}

func TestDeletePostOwnRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`FROM posts p`).
		WithArgs(int64(4), int64(1)).
		WillReturnRows(postRow(4, 1, "ana", "Doomed"))
	mock.ExpectExec(`DELETE FROM posts`).
		WithArgs(int64(4), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, st.DeletePost(context.Background(), 1, 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
