package store

import "context"

// Stats are the aggregate counters shown on the stats endpoint.
type Stats struct {
	Users       int64 `json:"user_count"`
	Articles    int64 `json:"article_count"`
	Revisions   int64 `json:"revision_count"`
	Discussions int64 `json:"discussion_count"`
	ViewsToday  int64 `json:"daily_view_count"`
}

// Stats gathers the counters; a failing counter is reported as zero.
func (s *Store) Stats(ctx context.Context) Stats {
	var st Stats
	st.Users, _ = s.CountUsers(ctx)
	st.Articles, _ = s.CountArticles(ctx)
	st.Revisions, _ = s.CountHistory(ctx)
	st.Discussions, _ = s.CountDiscussions(ctx)
	st.ViewsToday, _ = s.PageViewsToday(ctx)
	return st
}
