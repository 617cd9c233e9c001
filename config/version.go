package config

var (
	Version    string = "dev"
	CommitHash string = ""
	BuildTime  string = ""
)

// IsProduction 生产构建：Version 为 "release" 且带有 CommitHash
func IsProduction() bool {
	return Version == "release" && CommitHash != ""
}

// IsDevelopment 判断是否为开发构建
func IsDevelopment() bool {
	return Version == "dev"
}

// VersionInfo 返回版本信息
func VersionInfo() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  CommitHash,
		"built":   BuildTime,
	}
}
