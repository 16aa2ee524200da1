package catalog

// Track is a playable item in the catalog.
// Immutable once created; identity is ID.
type Track struct {
	ID         string `koanf:"id"`
	Title      string `koanf:"title"`
	Artist     string `koanf:"artist"`
	MediaURI   string `koanf:"media_uri"`
	ArtworkURI string `koanf:"artwork_uri"`
}
