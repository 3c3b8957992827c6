package model

// Session is the full client-side state held in the session store.
type Session struct {
	OnboardingComplete bool
	LoggedIn           bool
	Username           string
	Profile            *UserProfile // nil when no profile has been saved
}

// KV is a persistent string-keyed byte store backing the session.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(keys ...string) error
	Keys() ([]string, error)
	Clear() error
	Close() error
}
