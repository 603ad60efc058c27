package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Jakarta on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		TimeZone         string
		WorkDir          string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server     ServerConfig
		Database   DatabaseConfig
		Whatsapp   WhatsappConfig
		Forwarding ForwardingConfig
		Complaint  ComplaintConfig

		location *time.Location
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		SecretKey          string
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	WhatsappConfig struct {
		BridgeURL string
		Timeout   time.Duration
	}

	// ForwardingConfig holds the complaint forwarding settings.
	ForwardingConfig struct {
		EmailEnabled    bool
		WhatsappEnabled bool
		Mode            string // auto | manual
		AdminEmail      string
		AdminWhatsapp   string
		Departments     map[string]DepartmentConfig // {lower(category): department}
	}

	DepartmentConfig struct {
		Name          string `mapstructure:"name"`
		Email         string `mapstructure:"email"`
		Whatsapp      string `mapstructure:"whatsapp"`
		ContactPerson string `mapstructure:"contactPerson"`
	}

	ComplaintConfig struct {
		StrictTransitions bool
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Location returns the time zone used for calendar dates (registration, approval, handover).
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return loadLocation(c.TimeZone)
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: unknown time zone %q, falling back to UTC", name)
		return time.UTC
	}
	return loc
}

var defaultDepartments = map[string]interface{}{
	"Teknis":    map[string]interface{}{"name": "Dinas Teknis", "contactPerson": "Kepala Dinas Teknis"},
	"Pelayanan": map[string]interface{}{"name": "Dinas Pelayanan Publik", "contactPerson": "Kepala Dinas Pelayanan"},
	"Bantuan":   map[string]interface{}{"name": "Dinas Sosial", "contactPerson": "Kepala Dinas Sosial"},
	"Saran":     map[string]interface{}{"name": "Sekretariat Daerah", "contactPerson": "Sekretaris Daerah"},
	"Lainnya":   map[string]interface{}{"name": "Humas & Protokol", "contactPerson": "Kepala Humas"},
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Relawan")
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("timeZone", "Asia/Jakarta")
	conf.SetDefault("defaultFromEmail", "Relawan <noreply@localhost>")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "0.0.0.0:8000")
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.secretKey", "h7z$k2-+pq9@x!c3v&w0e1r)t5y(u8i#o4p%a6s^d*f")
	conf.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "relawan")
	conf.SetDefault("database.user", "relawan")
	conf.SetDefault("database.password", "relawan")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("whatsapp.bridgeURL", "http://localhost:3001")
	conf.SetDefault("whatsapp.timeout", 10*time.Second)

	conf.SetDefault("forwarding.email", true)
	conf.SetDefault("forwarding.whatsapp", false)
	conf.SetDefault("forwarding.mode", "auto")
	conf.SetDefault("forwarding.adminEmail", "")
	conf.SetDefault("forwarding.adminWhatsapp", "")
	conf.SetDefault("forwarding.departments", defaultDepartments)

	conf.SetDefault("complaint.strictTransitions", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	// viper lower-cases map keys: departments are keyed by lower-cased category
	var departments map[string]DepartmentConfig
	if err := conf.UnmarshalKey("forwarding.departments", &departments); err != nil {
		log.Fatalf("config.forwarding.departments: %v", err)
	}

	return &Config{
		AppName:          conf.GetString("appName"),
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		TimeZone:         conf.GetString("timeZone"),
		WorkDir:          wd,
		DefaultFromEmail: *fromEmail,
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               conf.GetString("server.host"),
			DebugHost:          conf.GetString("server.debugHost"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			SecretKey:          conf.GetString("server.secretKey"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Whatsapp: WhatsappConfig{
			BridgeURL: conf.GetString("whatsapp.bridgeURL"),
			Timeout:   conf.GetDuration("whatsapp.timeout"),
		},
		Forwarding: ForwardingConfig{
			EmailEnabled:    conf.GetBool("forwarding.email"),
			WhatsappEnabled: conf.GetBool("forwarding.whatsapp"),
			Mode:            conf.GetString("forwarding.mode"),
			AdminEmail:      conf.GetString("forwarding.adminEmail"),
			AdminWhatsapp:   conf.GetString("forwarding.adminWhatsapp"),
			Departments:     departments,
		},
		Complaint: ComplaintConfig{
			StrictTransitions: conf.GetBool("complaint.strictTransitions"),
		},
		location: loadLocation(conf.GetString("timeZone")),
	}
}
