package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/jidai/internal/models"
)

type staticLocator struct {
	name  string
	refs  []models.DocumentReference
	calls int
}

func (s *staticLocator) Name() string { return s.name }

func (s *staticLocator) Locate(context.Context, models.DateQuery, string) []models.DocumentReference {
	s.calls++
	return s.refs
}

type staticFinder []models.DocumentReference

func (f staticFinder) Find(models.DateQuery, string) []models.DocumentReference { return f }

func TestMulti_MergesInOrderAndDedupes(t *testing.T) {
	a := &staticLocator{name: "a", refs: []models.DocumentReference{
		models.NewWebArticle("https://x/1", "one"),
		models.NewWebArticle("https://x/2", "two"),
	}}
	b := &staticLocator{name: "b", refs: []models.DocumentReference{
		models.NewWebArticle("https://x/2", "dup"),
		models.NewWebArticle("https://x/3", "three"),
	}}

	refs := NewMulti(0, nil, a, b).Locate(context.Background(), march5, "")
	var urls []string
	for _, r := range refs {
		urls = append(urls, r.URL)
	}
	assert.Equal(t, []string{"https://x/1", "https://x/2", "https://x/3"}, urls)
	assert.Equal(t, "two", refs[1].Title)
}

func TestMulti_Limit(t *testing.T) {
	a := &staticLocator{name: "a", refs: []models.DocumentReference{
		models.NewWebArticle("https://x/1", ""),
		models.NewWebArticle("https://x/2", ""),
	}}
	b := &staticLocator{name: "b", refs: []models.DocumentReference{models.NewWebArticle("https://x/3", "")}}

	refs := NewMulti(2, nil, a, b).Locate(context.Background(), march5, "")
	assert.Len(t, refs, 2)
	assert.Zero(t, b.calls, "limit reached before second locator")
}

func TestArchiveLocator(t *testing.T) {
	ref := models.NewLocalFile("/archive/a.pdf")
	l := NewArchiveLocator(staticFinder{ref})
	assert.Equal(t, "archive", l.Name())
	assert.Equal(t, []models.DocumentReference{ref}, l.Locate(context.Background(), march5, ""))
}
