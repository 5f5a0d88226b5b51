package domain

const userProfileKeyPrefix = "userprofile:"

// UserProfileKey returns the cache key of the profile blob for a subject.
func UserProfileKey(subject string) string {
	return userProfileKeyPrefix + subject
}
