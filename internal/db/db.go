package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/zngsm/chatting/internal/chat"
	"github.com/zngsm/chatting/internal/models"
)

// Connect opens the MySQL store and migrates the schema. Fatal on failure:
// nothing in the process can run without the store.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&chat.ChatRoom{},
		&chat.Visit{},
		&chat.Message{},
	)
}
