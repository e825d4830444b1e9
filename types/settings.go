package types

// RepeatMode controls what happens when a track ends
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatAll  RepeatMode = "all"
	RepeatOne  RepeatMode = "one"
)

// Next returns the mode that follows m in the none -> all -> one cycle
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// Valid reports whether m is a known repeat mode
func (m RepeatMode) Valid() bool {
	return m == RepeatNone || m == RepeatAll || m == RepeatOne
}

// SortKey selects the ordering of the library view
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByArtist    SortKey = "artist"
	SortByAlbum     SortKey = "album"
	SortByYear      SortKey = "year"
	SortByDuration  SortKey = "duration"
	SortByDateAdded SortKey = "dateAdded"
)

// DefaultVolume is the playback volume used before the user changes it
const DefaultVolume = 0.7

// Settings represents the persisted user preferences
type Settings struct {
	Volume  float64    `json:"volume"`
	Shuffle bool       `json:"shuffle"`
	Repeat  RepeatMode `json:"repeat"`
	Sort    SortKey    `json:"sort"`
	Folders []string   `json:"folders"`
}

// DefaultSettings returns the settings of a fresh install
func DefaultSettings() Settings {
	return Settings{
		Volume:  DefaultVolume,
		Shuffle: false,
		Repeat:  RepeatNone,
		Sort:    SortByName,
		Folders: []string{},
	}
}
