package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	AdminConfig struct {
		Name     string
		Email    string
		Password string
	}

	ExportConfig struct {
		Dir     string
		LogFile string
	}

	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		RollbarToken string
		ServerHost   string
		WorkDir      string
		SeedFile     string

		PasswordHashCost    int
		MaxSubmissionLength int
		LowGradeThreshold   int

		DefaultAdmin AdminConfig
		Export       ExportConfig
	}
)

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the upper-cased env name, eg. DEV_DEBUG=false.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "EduPlatform")
	v.SetDefault("build", "dev")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("passwordHashCost", 10)
	v.SetDefault("maxSubmissionLength", 500)
	v.SetDefault("lowGradeThreshold", 2)
	v.SetDefault("defaultAdmin.name", "Super Admin")
	v.SetDefault("defaultAdmin.email", "admin@eduplatform.com")
	v.SetDefault("defaultAdmin.password", "adminpass")
	v.SetDefault("export.dir", "exported")
	v.SetDefault("export.logFile", "export_log.jsonl")
	v.SetDefault("seedFile", filepath.Join("assets", "seed.yaml"))

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		RollbarToken: v.GetString("rollbarToken"),
		ServerHost:   v.GetString("serverHost"),
		WorkDir:      workDir,
		SeedFile:     v.GetString("seedFile"),

		PasswordHashCost:    v.GetInt("passwordHashCost"),
		MaxSubmissionLength: v.GetInt("maxSubmissionLength"),
		LowGradeThreshold:   v.GetInt("lowGradeThreshold"),

		DefaultAdmin: AdminConfig{
			Name:     v.GetString("defaultAdmin.name"),
			Email:    v.GetString("defaultAdmin.email"),
			Password: v.GetString("defaultAdmin.password"),
		},
		Export: ExportConfig{
			Dir:     v.GetString("export.dir"),
			LogFile: v.GetString("export.logFile"),
		},
	}
}
