package model

import (
	"encoding/json"
)

// DateTimeUnknown marks a photo without a capture timestamp tag.
const DateTimeUnknown = "N/A"

// PhotoRecord is the result of processing one uploaded photo.
// The browser client echoes it back unchanged to the generation endpoint.
type PhotoRecord struct {
	ImagePath string   `json:"image_path"`
	FileName  string   `json:"file_name,omitempty"` // set by the web client only
	Metadata  Metadata `json:"metadata"`
	Caption   string   `json:"caption"`
}

// Metadata holds everything extracted from one photo.
type Metadata struct {
	// RawTags is the JSON-safe tag table. GPS tags are nested under "GPSInfo".
	RawTags  map[string]any `json:"exif_data"`
	Labeled  Labeled        `json:"labeled_exif"`
	Location Location       `json:"location_info"`
}

// Labeled holds the derived, human-readable fields.
type Labeled struct {
	// DateTime is the original capture timestamp verbatim, or DateTimeUnknown.
	// Empty means the field was absent altogether (records from older clients).
	DateTime  string   `json:"Date/Time,omitempty"`
	Latitude  *float64 `json:"Latitude,omitempty"`
	Longitude *float64 `json:"Longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates are present.
func (l Labeled) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Location is a flattened reverse-geocoding result.
type Location struct {
	FullAddress string `json:"full_address"`
	Country     string `json:"country"`
	State       string `json:"state"`
	City        string `json:"city"`
	Suburb      string `json:"suburb"`
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	Postcode    string `json:"postcode"`
}

// IsZero reports whether no field was resolved.
func (l Location) IsZero() bool {
	return l == Location{}
}

// MarshalJSON writes an unresolved location as an empty object.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.IsZero() {
		return []byte("{}"), nil
	}
	type plain Location
	return json.Marshal(plain(l))
}
