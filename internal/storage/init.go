package storage

import (
	"Go_Share/config"
	"log"
)

// InitStore sets Default to the configured datasource.
func InitStore() {
	switch config.AppConfig.Datasource.Type {
	case "minio", "s3":
		InitMinio()
	default:
		store, err := NewLocalStore(config.AppConfig.Datasource.LocalDir)
		if err != nil {
			log.Fatalln("local datasource error:", err)
		}
		Default = store
	}
	log.Printf("datasource ready: %s", config.AppConfig.Datasource.Type)
}
