package config

import (
	"testing"
	"time"
)

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv("CHUNKS_MAX_SIZE", "")
	t.Setenv("FINALIZE_MODE", "")
	InitConfig()
	if AppConfig.Chunks.MaxSize != 90*1024*1024 {
		t.Fatalf("unexpected chunk max size %d", AppConfig.Chunks.MaxSize)
	}
	if AppConfig.Finalize.Mode != "local" {
		t.Fatalf("unexpected finalize mode %q", AppConfig.Finalize.Mode)
	}
	if AppConfig.Uploader.Route != "/u" || AppConfig.Uploader.Length != 6 {
		t.Fatalf("unexpected uploader defaults %+v", AppConfig.Uploader)
	}
}

func TestInitConfigFromEnv(t *testing.T) {
	t.Setenv("UPLOADER_DISABLED_EXTENSIONS", "exe, ,bat")
	t.Setenv("UPLOADER_USER_RATELIMIT", "30s")
	t.Setenv("EXIF_REMOVE_GPS", "yes")
	t.Setenv("FINALIZE_RETRY_DELAYS", "1s,2s")
	t.Setenv("FINALIZE_CONCURRENCY", "not-a-number")
	t.Setenv("DATASOURCE_TYPE", "MINIO")
	InitConfig()

	up := AppConfig.Uploader
	if len(up.DisabledExtensions) != 2 || up.DisabledExtensions[1] != "bat" {
		t.Fatalf("unexpected disabled extensions %v", up.DisabledExtensions)
	}
	if up.Cooldown(false) != 30*time.Second || up.Cooldown(true) != 0 {
		t.Fatalf("unexpected cooldowns %v %v", up.Cooldown(false), up.Cooldown(true))
	}
	if !AppConfig.Exif.RemoveGPS {
		t.Fatalf("expect gps removal enabled")
	}
	delays := AppConfig.Finalize.RetryDelays
	if len(delays) != 2 || delays[1] != 2*time.Second {
		t.Fatalf("unexpected retry delays %v", delays)
	}
	if AppConfig.Finalize.Concurrency != 4 {
		t.Fatalf("invalid int should fall back to default, got %d", AppConfig.Finalize.Concurrency)
	}
	if AppConfig.Datasource.Type != "minio" {
		t.Fatalf("datasource type should be lowercased, got %q", AppConfig.Datasource.Type)
	}
}

func TestSizeLimit(t *testing.T) {
	cfg := UploaderConfig{AdminLimit: 10, UserLimit: 5}
	if cfg.SizeLimit(true) != 10 || cfg.SizeLimit(false) != 5 {
		t.Fatalf("unexpected size limits")
	}
}
