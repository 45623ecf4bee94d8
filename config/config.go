package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080"  env:"APP_PORT"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"approval" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Auth struct {
		JWTSecret             string `default:"secret" env:"JWT_SECRET"`
		JWTExpireInSec        int    `default:"86400" env:"JWT_EXPIRE_IN_SEC"`
		JWTRefreshExpireInSec int    `default:"604800" env:"JWT_REFRESH_EXPIRE_IN_SEC"`
	}
	Admin struct {
		Email     string `default:"" env:"ADMIN_EMAIL"`
		Password  string `default:"" env:"ADMIN_PASSWORD"`
		FirstName string `default:"" env:"ADMIN_FIRST_NAME"`
		LastName  string `default:"" env:"ADMIN_LAST_NAME"`
	}
	Smtp struct {
		User       string `default:"" env:"SMTP_USER"`
		Password   string `default:"" env:"SMTP_PASSWORD"`
		Host       string `default:"" env:"SMTP_HOST"`
		Port       string `default:"" env:"SMTP_PORT"`
		TLSEnabled *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
	}
	S3 struct {
		Endpoint        string `default:"" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		BucketName      string `default:"approval-export" env:"S3_BUCKET_NAME"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
	}
	// Настройки выгрузок.
	// FontDir - каталог со шрифтами для pdf (Arial.ttf, Arial Bold.ttf),
	// поставляется вместе с развертыванием, в репозитории шрифтов нет.
	Export struct {
		FontDir string `default:"static/font" env:"EXPORT_FONT_DIR"`
	}
	// Настройки движка согласования.
	// GroupTypes - типы сущностей, которые разворачиваются в списки согласующих.
	// Передаются движку явно, без глобальных обращений к настройке изнутри.
	Approval struct {
		GroupTypes     []string `default:"[approval_group]" env:"APPROVAL_GROUP_TYPES"`
		DefaultGroup   string   `default:"Согласующие по умолчанию" env:"APPROVAL_DEFAULT_GROUP"`
		NotifyByEmail  *bool    `default:"true" env:"APPROVAL_NOTIFY_BY_EMAIL"`
		ArchiveExports *bool    `default:"false" env:"APPROVAL_ARCHIVE_EXPORTS"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
