package util

import "strings"

// AssetURL 把练习图片路径转换为可访问的绝对地址
// 绝对地址原样返回；相对路径归一到 /static/ 下并拼接 baseURL
func AssetURL(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	if strings.HasPrefix(path, "static/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, StaticPrefix) {
		if strings.HasPrefix(path, "/") {
			path = "/static" + path
		} else {
			path = StaticPrefix + path
		}
	}

	return strings.TrimRight(baseURL, "/") + path
}
