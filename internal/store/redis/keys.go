package redis

const (
	// KeyPrefixLink is the prefix for link hashes
	KeyPrefixLink = "varlink:link:"
	// KeyAllLinks is the key for the set of all link IDs
	KeyAllLinks = "varlink:links:all"
	// ChannelChanges is the pub/sub channel announcing collection changes
	ChannelChanges = "varlink:links:changed"
)

// LinkKey returns the Redis key for a link by ID
func LinkKey(id string) string {
	return KeyPrefixLink + id
}

// AllLinksKey returns the key for the set of all link IDs
func AllLinksKey() string {
	return KeyAllLinks
}

// ChangesChannel returns the channel notified on every write
func ChangesChannel() string {
	return ChannelChanges
}
