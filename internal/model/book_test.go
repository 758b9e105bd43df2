package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFavoriteEntryRoundTrip(t *testing.T) {
	b := Book{
		BookID:      "vol-1",
		Title:       "围城",
		Author:      "钱钟书",
		Image:       "https://example.com/cover.jpg",
		PreviewLink: "https://example.com/preview",
		Rating:      4.5,
		Source:      "catalog",
	}

	entry := b.FavoriteEntry()
	assert.Equal(t, "vol-1", entry.BookID)
	assert.Equal(t, "围城", entry.Title)
	assert.Equal(t, "钱钟书", entry.Author)

	back := BookFromFavorite(entry)
	assert.Equal(t, b.BookID, back.BookID)
	assert.Equal(t, b.Title, back.Title)
	assert.True(t, back.Favorited)
	assert.Equal(t, "favorite", back.Source)
}

func TestBookFromFeatured(t *testing.T) {
	fb := FeaturedBook{
		ID:     3,
		Title:  "活着",
		Author: "余华",
		Cover:  "https://example.com/huozhe.jpg",
		Rating: 4.8,
	}

	b := BookFromFeatured(fb)
	assert.Equal(t, "featured-3", b.BookID)
	assert.Equal(t, "活着", b.Title)
	assert.Equal(t, fb.Cover, b.Image)
	assert.Equal(t, "featured", b.Source)
	assert.False(t, b.Favorited)
}

func TestFeaturedBookIDStable(t *testing.T) {
	assert.Equal(t, FeaturedBookID(1), FeaturedBookID(1))
	assert.NotEqual(t, FeaturedBookID(1), FeaturedBookID(2))
}
