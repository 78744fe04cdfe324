package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// IdentityKey is the gin context key holding the verified *auth.Identity.
const IdentityKey = contextKey("identity")

// String returns the key as used with gin.Context.Set/Get.
func (k contextKey) String() string {
	return string(k)
}
