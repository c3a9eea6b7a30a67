package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/awe/models"
	"github.com/cppla/awe/store"
	"github.com/cppla/awe/store/storetest"
)

func newStore(t *testing.T) *store.Store {
	return storetest.Open(t, store.Options{Now: storetest.NewClock().Now})
}

func seedData() store.SeedData {
	return store.SeedData{
		AdminUsername:     "admin",
		AdminPasswordHash: "hash",
		WelcomeSlug:       "EXAMPLE:PP",
		WelcomeTitle:      "EXAMPLE:PP",
		WelcomeContent:    "welcome",
	}
}

func TestSeedRunsOnce(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	seeded, err := st.Seed(ctx, seedData())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = st.Seed(ctx, seedData())
	require.NoError(t, err)
	assert.False(t, seeded)

	users, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, users)

	admin, err := st.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	welcome, err := st.GetArticle(ctx, "EXAMPLE:PP")
	require.NoError(t, err)
	assert.Equal(t, "welcome", welcome.Content)

	history, err := st.ListHistory(ctx, "EXAMPLE:PP")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSeedSkipsNonEmptyDatabase(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateArticle(ctx, "existing", "existing", "body", "")
	require.NoError(t, err)

	seeded, err := st.Seed(ctx, seedData())
	require.NoError(t, err)
	assert.False(t, seeded)

	_, err = st.GetUser(ctx, "admin")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSeedConcurrent(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seeded, err := st.Seed(ctx, seedData())
			assert.NoError(t, err)
			if seeded {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, count)
}

func TestSeedRejectsIncompleteData(t *testing.T) {
	st := newStore(t)
	_, err := st.Seed(context.Background(), store.SeedData{AdminUsername: "admin"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestCreateArticleConflict(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateArticle(ctx, "Go", "Go", "first", "alice")
	require.NoError(t, err)

	_, err = st.CreateArticle(ctx, "Go", "Go", "second", "bob")
	assert.ErrorIs(t, err, store.ErrConflict)

	article, err := st.GetArticle(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, "first", article.Content)
	assert.Equal(t, "alice", article.LastEditor)
}

func TestCreateArticleRequiresSlugAndTitle(t *testing.T) {
	st := newStore(t)
	_, err := st.CreateArticle(context.Background(), "", "t", "c", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = st.CreateArticle(context.Background(), "s", "", "c", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestGetArticleNotFound(t *testing.T) {
	st := newStore(t)
	_, err := st.GetArticle(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserConflict(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateUser(ctx, "alice", "h1", false)
	require.NoError(t, err)
	_, err = st.CreateUser(ctx, "alice", "h2", false)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = st.CreateUser(ctx, "  ", "h", false)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestAppendHistoryRequiresArticle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.AppendHistory(ctx, "ghost", "body", "alice", nil, time.Time{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := st.CountHistory(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListHistoryNewestFirst(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateArticle(ctx, "Go", "Go", "v1", "")
	require.NoError(t, err)
	for _, body := range []string{"v2", "v3", "v4"} {
		_, err := st.AppendHistory(ctx, "Go", body, "alice", nil, time.Time{})
		require.NoError(t, err)
	}

	history, err := st.ListHistory(ctx, "Go")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "v4", history[0].Content)
	assert.Equal(t, "v2", history[2].Content)

	version, err := st.GetVersion(ctx, history[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "v3", version.Content)

	_, err = st.GetVersion(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecentChangesAndContributions(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateArticle(ctx, "a", "Alpha", "x", "")
	require.NoError(t, err)
	_, err = st.CreateArticle(ctx, "b", "Beta", "x", "")
	require.NoError(t, err)

	summary := "typo"
	_, err = st.AppendHistory(ctx, "a", "1", "alice", nil, time.Time{})
	require.NoError(t, err)
	_, err = st.AppendHistory(ctx, "b", "2", "bob", &summary, time.Time{})
	require.NoError(t, err)
	_, err = st.AppendHistory(ctx, "a", "3", "alice", nil, time.Time{})
	require.NoError(t, err)

	recent, err := st.RecentChanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "a", recent[0].Slug)
	assert.Equal(t, "Alpha", recent[0].Title)
	assert.Equal(t, "bob", recent[1].User)
	require.NotNil(t, recent[1].Summary)
	assert.Equal(t, "typo", *recent[1].Summary)

	limited, err := st.RecentChanges(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	mine, err := st.Contributions(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, c := range mine {
		assert.Equal(t, "alice", c.User)
		assert.Equal(t, "Alpha", c.Title)
	}
}

func TestRandomSlug(t *testing.T) {
	st := storetest.Open(t, store.Options{Intn: func(n int) int { return n - 1 }})
	ctx := context.Background()

	_, err := st.RandomSlug(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	for _, slug := range []string{"one", "two", "three"} {
		_, err := st.CreateArticle(ctx, slug, slug, "x", "")
		require.NoError(t, err)
	}
	slug, err := st.RandomSlug(ctx)
	require.NoError(t, err)
	assert.Equal(t, "three", slug)
}

func TestFindByTitleSubstring(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateArticle(ctx, "s1", "Learning Go", "x", "")
	require.NoError(t, err)
	_, err = st.CreateArticle(ctx, "s2", "Go Concurrency", "x", "")
	require.NoError(t, err)
	_, err = st.CreateArticle(ctx, "s3", "100% pure", "x", "")
	require.NoError(t, err)

	found, err := st.FindByTitleSubstring(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, "s1", found.Slug)

	_, err = st.FindByTitleSubstring(ctx, "go")
	assert.ErrorIs(t, err, store.ErrNotFound)

	found, err = st.FindByTitleSubstring(ctx, "0% p")
	require.NoError(t, err)
	assert.Equal(t, "s3", found.Slug)

	_, err = st.FindByTitleSubstring(ctx, "%")
	require.NoError(t, err)
	_, err = st.FindByTitleSubstring(ctx, "_")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSearch(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, err := st.CreateArticle(ctx, "b", "Bravo", "mentions gophers", "")
	require.NoError(t, err)
	_, err = st.CreateArticle(ctx, "a", "Gopher facts", "x", "")
	require.NoError(t, err)
	_, err = st.CreateArticle(ctx, "c", "Other", "nothing", "")
	require.NoError(t, err)

	results, err := st.Search(ctx, "gopher", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Bravo", results[0].Title)
	assert.Equal(t, "Gopher facts", results[1].Title)

	results, err = st.Search(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDiscussionReplyRequiresTopicOfSameArticle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	a, err := st.CreateArticle(ctx, "a", "a", "x", "")
	require.NoError(t, err)
	b, err := st.CreateArticle(ctx, "b", "b", "x", "")
	require.NoError(t, err)

	topic := &models.Discussion{ArticleID: a.ID, Comment: "hello", User: "alice"}
	require.NoError(t, st.CreateDiscussion(ctx, topic))

	parent := topic.ID
	wrongArticle := &models.Discussion{ArticleID: b.ID, ParentID: &parent, Comment: "hi", User: "bob"}
	assert.ErrorIs(t, st.CreateDiscussion(ctx, wrongArticle), store.ErrNotFound)

	reply := &models.Discussion{ArticleID: a.ID, ParentID: &parent, Comment: "hi", User: "bob"}
	require.NoError(t, st.CreateDiscussion(ctx, reply))

	replyID := reply.ID
	nested := &models.Discussion{ArticleID: a.ID, ParentID: &replyID, Comment: "deep", User: "carol"}
	assert.ErrorIs(t, st.CreateDiscussion(ctx, nested), store.ErrNotFound)

	n, err := st.CountDiscussions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = st.GetTopic(ctx, a.ID, replyID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := st.GetTopic(ctx, a.ID, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Comment)
}

func TestPageViews(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, st.RecordPageView(ctx, "/wiki/Go"))
	}
	require.NoError(t, st.RecordPageView(ctx, "/wiki/Other"))

	n, err := st.PageViews(ctx, "/wiki/Go")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	stats := st.Stats(ctx)
	assert.EqualValues(t, 4, stats.ViewsToday)
}

func TestUploads(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, st.CreateUpload(ctx, &models.UploadedFile{}), store.ErrInvalidInput)

	f := &models.UploadedFile{StoredName: "abc.png", OriginalName: "cat.png", DisplayName: "cat", Uploader: "alice", URL: "/uploads/abc.png"}
	require.NoError(t, st.CreateUpload(ctx, f))

	got, err := st.GetUpload(ctx, "abc.png")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", got.OriginalName)

	list, err := st.ListUploads(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
