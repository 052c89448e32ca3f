package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-stream/internal/cursor"
	"photo-stream/internal/query"
)

func TestFetchPageWalkForward(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())
	ctx := context.Background()

	var walked []string
	var token string

	for page := 0; ; page++ {
		res, err := d.FetchPage(ctx, PageOptions{Cursor: token, Limit: 3})
		require.NoError(t, err)

		walked = append(walked, filenames(res.Items)...)
		assert.Equal(t, 10, res.Total)

		if page == 0 {
			assert.Nil(t, res.PrevCursor, "first page has nothing before it")
			require.NotNil(t, res.NextCursor)
		}
		if res.NextCursor == nil {
			assert.NotNil(t, res.PrevCursor, "last page has pages before it")
			break
		}
		token = *res.NextCursor
		require.Less(t, page, 10, "pagination must terminate")
	}

	want := []string{
		"IMG_0010.CR3", "IMG_0009.CR3", "IMG_0008.CR3",
		"IMG_0007.CR3", "IMG_0006.CR3", "IMG_0005.CR3",
		"IMG_0004.CR3", "IMG_0003.CR3", "IMG_0002.CR3",
		"IMG_0001.CR3",
	}
	assert.Equal(t, want, walked)
}

func TestFetchPageBackward(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())
	ctx := context.Background()

	first, err := d.FetchPage(ctx, PageOptions{Limit: 3})
	require.NoError(t, err)
	require.NotNil(t, first.NextCursor)

	second, err := d.FetchPage(ctx, PageOptions{Cursor: *first.NextCursor, Limit: 3})
	require.NoError(t, err)
	require.NotNil(t, second.PrevCursor)

	// Walking backward from the second page reproduces the first page
	// exactly, in canonical forward order.
	back, err := d.FetchPage(ctx, PageOptions{BeforeCursor: *second.PrevCursor, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, filenames(first.Items), filenames(back.Items))
	assert.Nil(t, back.PrevCursor, "nothing exists before the head of the listing")
	assert.NotNil(t, back.NextCursor)
}

func TestFetchPageTieBreak(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "studio", []seedPhoto{
		{filename: "a.jpg", captured: "2024-01-01T00:00:00Z"},
		{filename: "b.jpg", captured: "2024-01-01T00:00:00Z"},
	})
	ctx := context.Background()

	// Identical sort values: the id tie-break orders the later insert
	// (higher id) first under descending sort.
	page, err := d.FetchPage(ctx, PageOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b.jpg", page.Items[0].Filename)
	require.NotNil(t, page.NextCursor)

	c, err := cursor.Decode(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", c.SortValue)
	assert.Equal(t, page.Items[0].ID, c.ID)

	page2, err := d.FetchPage(ctx, PageOptions{Cursor: *page.NextCursor, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.Equal(t, "a.jpg", page2.Items[0].Filename)
	assert.Nil(t, page2.NextCursor)
	assert.NotNil(t, page2.PrevCursor)
}

func TestFetchPageBothCursorsRejected(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	_, err := d.FetchPage(context.Background(), PageOptions{
		Cursor:       cursor.Encode("2024-01-01T00:00:00Z", 1),
		BeforeCursor: cursor.Encode("2024-01-02T00:00:00Z", 2),
	})
	require.Error(t, err)
}

func TestFetchPageMalformedCursor(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	_, err := d.FetchPage(context.Background(), PageOptions{Cursor: "not!!a!!cursor"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cursor.ErrMalformed)
}

func TestFetchPageUnionExcludesArchived(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "active", []seedPhoto{
		{filename: "keep.jpg", captured: "2024-02-01T00:00:00Z"},
	})
	archivedID := seedProject(t, d, "old-shoot", []seedPhoto{
		{filename: "hidden.jpg", captured: "2024-02-02T00:00:00Z"},
	})
	ctx := context.Background()

	require.NoError(t, d.SetProjectArchived(ctx, archivedID, true))

	union, err := d.FetchPage(ctx, PageOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.jpg"}, filenames(union.Items))
	assert.Equal(t, 1, union.Total)

	// Direct project scope still reaches the archived photos.
	scoped, err := d.FetchPage(ctx, PageOptions{
		Filters: query.Filters{ProjectID: archivedID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hidden.jpg"}, filenames(scoped.Items))
}

func TestFetchPageFilteredTotals(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())
	ctx := context.Background()

	// Ratings cycle 0..5 over ten photos: exactly two rate >= 4.
	page, err := d.FetchPage(ctx, PageOptions{
		Filters: query.Filters{MinRating: 4},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 10, page.UnfilteredTotal, "the scope-only count ignores filters")

	for _, p := range page.Items {
		assert.GreaterOrEqual(t, p.Rating, 4)
	}
}

func TestFetchPageFlaggedOnly(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())

	page, err := d.FetchPage(context.Background(), PageOptions{
		Filters: query.Filters{FlaggedOnly: true},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	for _, p := range page.Items {
		assert.True(t, p.Flagged)
	}
}

func TestFetchPageTagFilters(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "wedding", []seedPhoto{
		{filename: "ceremony.jpg", captured: "2024-05-01T10:00:00Z", tags: []string{"keeper", "b&w"}},
		{filename: "reception.jpg", captured: "2024-05-01T11:00:00Z", tags: []string{"keeper"}},
		{filename: "candid.jpg", captured: "2024-05-01T12:00:00Z"},
	})
	ctx := context.Background()

	keepers, err := d.FetchPage(ctx, PageOptions{
		Filters: query.Filters{IncludeTags: []string{"keeper"}},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ceremony.jpg", "reception.jpg"}, filenames(keepers.Items))

	// Include and exclude compose.
	colorKeepers, err := d.FetchPage(ctx, PageOptions{
		Filters: query.Filters{IncludeTags: []string{"keeper"}, ExcludeTags: []string{"b&w"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reception.jpg"}, filenames(colorKeepers.Items))

	// Tags ride along on fetched items, sorted case-insensitively.
	require.NotEmpty(t, keepers.Items)
	for _, p := range keepers.Items {
		assert.Contains(t, p.Tags, "keeper")
	}
}

func TestFetchPageSortBySize(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	// Duplicate sizes force the tie-break down the numeric sort path.
	seedProject(t, d, "exports", []seedPhoto{
		{filename: "tiny.jpg", captured: "2024-01-01T00:00:00Z", size: 512},
		{filename: "small.jpg", captured: "2024-01-02T00:00:00Z", size: 1024},
		{filename: "small2.jpg", captured: "2024-01-03T00:00:00Z", size: 1024},
		{filename: "big.jpg", captured: "2024-01-04T00:00:00Z", size: 4096},
	})
	ctx := context.Background()

	f := query.Filters{SortField: query.SortBySize, SortOrder: query.SortAsc}

	page, err := d.FetchPage(ctx, PageOptions{Filters: f, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny.jpg", "small.jpg"}, filenames(page.Items))
	require.NotNil(t, page.NextCursor)

	// The continuation carries a numeric sort value; the boundary
	// predicate must compare it as an integer, not as text.
	rest, err := d.FetchPage(ctx, PageOptions{Filters: f, Cursor: *page.NextCursor, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"small2.jpg", "big.jpg"}, filenames(rest.Items))
	assert.Nil(t, rest.NextCursor)
}

func TestFetchPageSortByName(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())

	page, err := d.FetchPage(context.Background(), PageOptions{
		Filters: query.Filters{SortField: query.SortByName, SortOrder: query.SortAsc},
		Limit:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"IMG_0001.CR3", "IMG_0002.CR3", "IMG_0003.CR3"}, filenames(page.Items))
}

func TestFetchPageDefaultLimit(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())

	page, err := d.FetchPage(context.Background(), PageOptions{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10, "an unset limit falls back to the default page size")
	assert.Nil(t, page.NextCursor)
	assert.Nil(t, page.PrevCursor)
}

func TestFetchPageEmptyScope(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)

	page, err := d.FetchPage(context.Background(), PageOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
	assert.Nil(t, page.PrevCursor)
	assert.Equal(t, 0, page.Total)
}

func TestFetchPageDateRange(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	seedProject(t, d, "alps", tenPhotos())

	from := mustTime(t, "2024-03-01T13:00:00Z")
	to := mustTime(t, "2024-03-01T15:00:00Z")

	page, err := d.FetchPage(context.Background(), PageOptions{
		Filters: query.Filters{DateFrom: from, DateTo: to},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"IMG_0006.CR3", "IMG_0005.CR3", "IMG_0004.CR3"}, filenames(page.Items))
}
