package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	// Scenario content source: "fs" reads <ScenarioDir>/<topic>.json,
	// "sql" reads the scenarios table.
	ScenarioDriver string
	ScenarioDir    string

	AuthHMACSecret string
	AccessTTLMin   int
	RefreshTTLDays int

	AdminUser     string
	AdminPassHash string // bcrypt

	// Sessions fail once wrong_count reaches this.
	WrongLimit int

	CORSOrigins []string

	LogLevel string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		ScenarioDriver: envOr("SCENARIO_DRIVER", "fs"),
		ScenarioDir:    envOr("SCENARIO_DIR", "./scenarios/data"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AccessTTLMin:   envInt("ACCESS_TTL_MIN", 60),
		RefreshTTLDays: envInt("REFRESH_TTL_DAYS", 90),

		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		WrongLimit: envInt("WRONG_LIMIT", 5),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
