//go:generate app-config -input ./app.json -output ./config_structs.go -pkg config --struct BaseConfig -extension overrides.yml
//go:generate config-getters -input ./config_structs.go -output config_getters.go
package config

type BaseConfig struct {
	App         App         `json:"app" yaml:"app"`
	Server      Server      `json:"server" yaml:"server"`
	Auth        Auth        `json:"auth" yaml:"auth"`
	Supabase    Supabase    `json:"supabase" yaml:"supabase"`
	Guard       Guard       `json:"guard" yaml:"guard"`
	Persistence Persistence `json:"persistence" yaml:"persistence"`
	Relay       Relay       `json:"relay" yaml:"relay"`
}

type App struct {
	Name string `json:"name" yaml:"name"`
	Env  string `json:"env" yaml:"env"`
}

type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

type Auth struct {
	MaxLoginAttempts         int    `json:"max_login_attempts" yaml:"max_login_attempts"`
	LockoutExpression        string `json:"lockout" yaml:"lockout"`
	SessionTimeoutExpression string `json:"session_timeout" yaml:"session_timeout"`
}

type Supabase struct {
	URL     string `json:"url" yaml:"url"`
	AnonKey string `json:"anon_key" yaml:"anon_key"`
	JWKSUrl string `json:"jwks_url" yaml:"jwks_url"`
}

type Guard struct {
	LoginPath         string   `json:"login_path" yaml:"login_path"`
	DashboardPath     string   `json:"dashboard_path" yaml:"dashboard_path"`
	ProtectedPrefixes []string `json:"protected_prefixes" yaml:"protected_prefixes"`
	RejectedRouteKey  string   `json:"rejected_route_key" yaml:"rejected_route_key"`
}

type Persistence struct {
	Driver                string `json:"driver" yaml:"driver"`
	Server                string `json:"server" yaml:"server"`
	DSN                   string `json:"dsn" yaml:"dsn"`
	Debug                 bool   `json:"debug" yaml:"debug"`
	PingTimeoutExpression string `json:"ping_timeout" yaml:"ping_timeout"`
}

type Relay struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	Token          string `json:"token" yaml:"token"`
	Template       string `json:"template" yaml:"template"`
	DefaultCountry string `json:"default_country" yaml:"default_country"`
}
