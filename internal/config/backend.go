package config

// ConfigBackend abstracts platform-specific config storage: UserDefaults on
// macOS, a JSON file under XDG_CONFIG_HOME elsewhere. Getters report ok=false
// for keys that were never written.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	GetBool(key string) (val bool, ok bool, err error)
	GetFloat(key string) (val float64, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	SetBool(key string, val bool) error
	SetFloat(key string, val float64) error
	Delete(key string) error
}
