package configs

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

var (
	JWTSecret string

	// ===== Tuning pipeline submit hasil ujian =====
	StorageWriteTimeout  time.Duration // batas waktu insert exam_results
	SpotCheckSampleCap   int           // maksimum soal yang di-recompute saat spot-check
	MonitorWindowSize    int           // ukuran ring buffer monitor
	MinPlausibleDuration time.Duration // hard floor durasi pengerjaan
	SoftDurationFloor    time.Duration // soft floor (warning saja)
	StalenessWindow      time.Duration // completed_at paling lama
	ClockSkewTolerance   time.Duration // toleransi completed_at di masa depan
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		log.Println("⚠️ JWT_SECRET belum diset — identitas dari token dimatikan")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}

	StorageWriteTimeout = getEnvDuration("RESULT_WRITE_TIMEOUT", 3*time.Second)
	SpotCheckSampleCap = getEnvInt("SPOT_CHECK_SAMPLE_CAP", 10)
	MonitorWindowSize = getEnvInt("MONITOR_WINDOW_SIZE", 200)
	MinPlausibleDuration = getEnvDuration("MIN_PLAUSIBLE_DURATION", 30*time.Second)
	SoftDurationFloor = getEnvDuration("SOFT_DURATION_FLOOR", 2*time.Minute)
	StalenessWindow = getEnvDuration("SUBMISSION_STALENESS_WINDOW", 24*time.Hour)
	ClockSkewTolerance = getEnvDuration("CLOCK_SKEW_TOLERANCE", 2*time.Minute)
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func getEnvInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
		log.Printf("⚠️ %s tidak valid (%q), pakai default %d", key, raw, def)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil && v > 0 {
			return v
		}
		log.Printf("⚠️ %s tidak valid (%q), pakai default %s", key, raw, def)
	}
	return def
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.LogLevel = level
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[INFO] "+msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[WARN] "+msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	log.Printf("[ERROR] "+msg, data...)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	if err != nil {
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	} else if elapsed > l.SlowThreshold {
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
