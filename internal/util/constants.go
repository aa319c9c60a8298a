package util

// 模型文件来源
const (
	StorageLocal = "file"
	StorageMinio = "minio"
)

// 静态资源前缀，图片相对路径统一归一到该前缀下
const StaticPrefix = "/static/"

const (
	DefaultLanguage = "es"
	HeaderLanguage  = "Accept-Language"
)
