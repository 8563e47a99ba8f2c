package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		DataDir      string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Seatcode SeatcodeConfig
		Email    EmailConfig
		Report   ReportConfig
	}

	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		PublicBaseURL      string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // sqlite | postgres
		Path       string // sqlite only
		Host       string
		Port       int
		User       string
		Password   string
		Name       string
		DisableTLS bool
	}

	SeatcodeConfig struct {
		Printer  string // latex | pdf
		LaTeXBin string
		Timeout  time.Duration
	}

	EmailConfig struct {
		DefaultFrom string
		SendgridKey string
	}

	ReportConfig struct {
		Recipients []string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

func (dbc DatabaseConfig) IsSQLite() bool {
	return dbc.Engine == "" || dbc.Engine == "sqlite"
}

// NewConfig reads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the upper-cased env name: DEV_SERVER_ADDRESS -> server.address
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Checkin")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "k3l#9w-a8z$qf0m=pc!x7vn2(h4)t*e6")
	conf.SetDefault("dataDir", "data")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", "")
	conf.SetDefault("server.publicBaseURL", "http://127.0.0.1:8000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 12*time.Hour)

	conf.SetDefault("database.engine", "sqlite")
	conf.SetDefault("database.path", "checkin.db")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.user", "")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.name", "checkin")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("seatcode.printer", "latex")
	conf.SetDefault("seatcode.latexBin", "pdflatex")
	conf.SetDefault("seatcode.timeout", 30*time.Second)

	conf.SetDefault("email.defaultFrom", "noreply@localhost")
	conf.SetDefault("email.sendgridKey", "")
	conf.SetDefault("report.recipients", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	hostname, _ := os.Hostname()

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		SecretKey:    conf.GetString("secretKey"),
		DataDir:      conf.GetString("dataDir"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:            conf.GetString("server.address"),
			Host:               hostname,
			DebugHost:          conf.GetString("server.debugHost"),
			PublicBaseURL:      strings.TrimRight(conf.GetString("server.publicBaseURL"), "/"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("database.engine"),
			Path:       conf.GetString("database.path"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetInt("database.port"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			Name:       conf.GetString("database.name"),
			DisableTLS: conf.GetBool("database.disableTLS"),
		},
		Seatcode: SeatcodeConfig{
			Printer:  conf.GetString("seatcode.printer"),
			LaTeXBin: conf.GetString("seatcode.latexBin"),
			Timeout:  conf.GetDuration("seatcode.timeout"),
		},
		Email: EmailConfig{
			DefaultFrom: conf.GetString("email.defaultFrom"),
			SendgridKey: conf.GetString("email.sendgridKey"),
		},
		Report: ReportConfig{
			Recipients: splitList(conf.GetString("report.recipients")),
		},
	}
}

// NewTestConfig returns a Config suited for tests: everything lives under dataDir.
func NewTestConfig(dataDir string) *Config {
	return &Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Checkin",
		SecretKey: "secret",
		DataDir:   dataDir,
		Server: ServerConfig{
			PublicBaseURL:      "http://127.0.0.1:8000",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: DatabaseConfig{
			Engine: "sqlite",
			Path:   filepath.Join(dataDir, "checkin.db"),
		},
		Seatcode: SeatcodeConfig{
			Printer:  "pdf",
			LaTeXBin: "pdflatex",
			Timeout:  5 * time.Second,
		},
		Email: EmailConfig{
			DefaultFrom: "noreply@localhost",
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("env=%s build=%s debug=%t db=%s", c.Env, c.Build, c.Debug, c.Database.Engine)
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
