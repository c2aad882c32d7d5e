package server

import (
	"time"

	"github.com/BurntSushi/migration"
	"github.com/Jatinnn-r/Video-Streaming-Platform/pkg/pwdhash"
	"github.com/Jatinnn-r/Video-Streaming-Platform/pkg/rando"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// Open or create the DB
func openDB(log logs.Log, config dbh.DBConfig) (*gorm.DB, error) {
	log.Infof("Opening video DB (%v)", config.LogSafeDescription())
	db, err := dbh.OpenDB(log, config, migrations(log), 0)
	if err != nil {
		return nil, err
	}
	nUsers := int64(0)
	if err := db.Table("auth_user").Count(&nUsers).Error; err != nil {
		return nil, err
	}
	if nUsers == 0 {
		pwd := rando.StrongRandomAlphaNumChars(20)
		log.Infof("auth_user table is empty, creating admin user.")
		log.Infof("Username: admin")
		log.Infof("Password: %v", pwd)
		user := model.AuthUser{
			Email:     "admin",
			Password:  pwdhash.HashPasswordBase64(pwd),
			CreatedAt: time.Now().UTC(),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
	}

	return db, nil
}

func migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE auth_user(
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE UNIQUE INDEX idx_auth_user_email ON auth_user(email);

		CREATE TABLE auth_session(
			key TEXT PRIMARY KEY,
			auth_user_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		);
		CREATE INDEX idx_auth_session_auth_user_id ON auth_session(auth_user_id);
		CREATE INDEX idx_auth_session_expires_at ON auth_session(expires_at);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE video(
			id INTEGER PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			storage_ref TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			progress INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);
		CREATE INDEX idx_video_created_at ON video(created_at);
	`))

	return migs
}
