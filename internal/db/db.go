package db

import (
	"log"
	"time"

	"github.com/mindharbor/wellness-platform/internal/chat"
	"github.com/mindharbor/wellness-platform/internal/models"
	"github.com/mindharbor/wellness-platform/internal/mood"
	"github.com/mindharbor/wellness-platform/internal/screening"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb
}

func Migrate(gdb *gorm.DB) {
	if err := gdb.AutoMigrate(
		&models.User{},
		&chat.Session{},
		&chat.Message{},
		&chat.Job{},
		&screening.Assessment{},
		&mood.MoodEntry{},
		&mood.DiaryEntry{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
}
