package database

// Image is a catalog row mapping a generated id to a file in the image store.
type Image struct {
	ID       string `db:"id"`
	Filename string `db:"filename"` // path relative to the image store root
}

// Score is a single submitted score. Rows are append-only and never addressed individually.
type Score struct {
	ImageID string `db:"image_id"`
	Score   int64  `db:"score"`
}
