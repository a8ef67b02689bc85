package api

// Config holds API server settings.
type Config struct {
	// ListenAddr is the address the server listens on, e.g. ":8080".
	ListenAddr string
}
