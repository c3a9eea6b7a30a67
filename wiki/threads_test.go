package wiki_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/awe/store"
	"github.com/cppla/awe/wiki"
)

func TestCreateTopicCreatesArticle(t *testing.T) {
	eng, st := newEngine(t)
	ctx := context.Background()

	topic, err := eng.CreateTopic(ctx, wiki.TopicRequest{Slug: "user:carol", Title: "Hi", Body: "first", Author: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotZero(t, topic.ID)
	require.NotNil(t, topic.TopicTitle)
	assert.Equal(t, "Hi", *topic.TopicTitle)

	article, err := st.GetArticle(ctx, "user:carol")
	require.NoError(t, err)
	assert.Equal(t, "Perfil de carol", article.Title)
	assert.Equal(t, article.ID, topic.ArticleID)
}

func TestCreateTopicValidation(t *testing.T) {
	eng, st := newEngine(t)
	ctx := context.Background()

	_, err := eng.CreateTopic(ctx, wiki.TopicRequest{Slug: "Go", Body: "  ", Author: "alice"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = eng.CreateTopic(ctx, wiki.TopicRequest{Slug: "Go", Body: "x"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	n, err := st.CountArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateReplyMissingTopic(t *testing.T) {
	eng, st := newEngine(t)
	ctx := context.Background()

	_, err := eng.CreateReply(ctx, wiki.ReplyRequest{Slug: "Nope", TopicID: 1, Body: "hi", Author: "alice"})
	assert.ErrorIs(t, err, wiki.ErrTopicNotFound)

	topic, err := eng.CreateTopic(ctx, wiki.TopicRequest{Slug: "Go", Body: "first", Author: "alice"})
	require.NoError(t, err)

	_, err = eng.CreateReply(ctx, wiki.ReplyRequest{Slug: "Go", TopicID: topic.ID + 100, Body: "hi", Author: "bob"})
	assert.ErrorIs(t, err, wiki.ErrTopicNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = eng.CreateReply(ctx, wiki.ReplyRequest{Slug: "Go", TopicID: 0, Body: "hi", Author: "bob"})
	assert.ErrorIs(t, err, wiki.ErrTopicNotFound)

	n, err := st.CountDiscussions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = st.GetArticle(ctx, "Nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestThreadOrdering(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	older, err := eng.CreateTopic(ctx, wiki.TopicRequest{Slug: "Go", Title: "old", Body: "a", Author: "alice"})
	require.NoError(t, err)
	newer, err := eng.CreateTopic(ctx, wiki.TopicRequest{Slug: "Go", Title: "new", Body: "b", Author: "bob"})
	require.NoError(t, err)

	for _, body := range []string{"r1", "r2", "r3"} {
		_, err := eng.CreateReply(ctx, wiki.ReplyRequest{Slug: "Go", TopicID: older.ID, Body: body, Author: "carol", ReplyTo: "alice"})
		require.NoError(t, err)
	}

	thread, err := eng.Thread(ctx, "Go")
	require.NoError(t, err)
	require.Len(t, thread.Topics, 2)
	assert.Equal(t, newer.ID, thread.Topics[0].ID)
	assert.Empty(t, thread.Topics[0].Replies)
	assert.Equal(t, older.ID, thread.Topics[1].ID)

	replies := thread.Topics[1].Replies
	require.Len(t, replies, 3)
	assert.Equal(t, "r1", replies[0].Comment)
	assert.Equal(t, "r3", replies[2].Comment)
	require.NotNil(t, replies[0].ReplyTo)
	assert.Equal(t, "alice", *replies[0].ReplyTo)
	assert.Nil(t, replies[0].TopicTitle)
}

func TestThreadOfMissingArticle(t *testing.T) {
	eng, st := newEngine(t)
	ctx := context.Background()

	thread, err := eng.Thread(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, thread.Article)
	assert.Empty(t, thread.Topics)

	n, err := st.CountArticles(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
