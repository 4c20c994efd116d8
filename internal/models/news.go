package models

// NewsItem is one headline from the movie news feed.
type NewsItem struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Date   string `json:"date"`
	Source string `json:"source"`
}
