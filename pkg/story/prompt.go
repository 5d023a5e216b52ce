package story

import (
	"i2cgo/pkg/model"
)

const dateFormat = "2006-01-02 15:04:05"

// imageBlock is the per-photo section of the story prompt.
type imageBlock struct {
	Index       int
	Caption     string
	HasDateTime bool
	DateTime    string
	Address     string
	Country     string
	City        string
}

// promptData is the story template input.
type promptData struct {
	Style             string
	StyleInstructions string
	UserContext       string
	Length            int
	Age               string
	Gender            string
	ToneName          string
	ToneDescription   string
	Images            []imageBlock
}

// hashtagData is the hashtag template input.
type hashtagData struct {
	Length  int
	Excerpt string
}

func newImageBlock(idx int, r model.PhotoRecord) imageBlock {
	b := imageBlock{Index: idx, Caption: r.Caption}
	if b.Caption == "" {
		b.Caption = "N/A"
	}

	// Records without the field at all get no metadata lines. A present but
	// unknown value still renders, with the undated sentinel.
	if r.Metadata.Labeled.DateTime == "" {
		return b
	}

	b.HasDateTime = true
	b.DateTime = ParseDate(r.Metadata.Labeled.DateTime).Format(dateFormat)

	loc := r.Metadata.Location
	if loc.IsZero() {
		b.Address, b.Country, b.City = "N/A", "N/A", "N/A"
	} else {
		b.Address, b.Country, b.City = loc.FullAddress, loc.Country, loc.City
	}
	return b
}

func imageBlocks(sorted []model.PhotoRecord) []imageBlock {
	blocks := make([]imageBlock, len(sorted))
	for i, r := range sorted {
		blocks[i] = newImageBlock(i+1, r)
	}
	return blocks
}
