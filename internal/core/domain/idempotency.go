package domain

// BuildIdempotencyKey scopes a client-supplied key to the calling identity.
func BuildIdempotencyKey(caller Identity, key string) string {
	return "contribution:" + string(caller) + ":" + key
}
