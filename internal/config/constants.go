// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "AttendKeep"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort          = ":8080"
	DefaultLogLevel            = "info"
	DefaultDatabaseURL         = "data/attend_keep.db"
	DefaultJWTExpiryHours      = 168 // 7日
	DefaultDashboardWindowDays = 30
	DefaultTrendWindowDays     = 90
	DefaultAdminEmail          = "admin@attendkeep.local"
	DefaultAdminName           = "管理者"
)
