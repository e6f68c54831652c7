package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// LoadFields 提供 specifier/分类/命中状态字段，供模块加载日志复用。
func LoadFields(specifier, category string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"action":    "load",
		"specifier": specifier,
		"category":  category,
		"cache_hit": cacheHit,
	}
}

// RequestFields 提供诊断接口请求的基础字段。
func RequestFields(method, path, requestID string) logrus.Fields {
	fields := logrus.Fields{
		"action": "diagnostics",
		"method": method,
		"path":   path,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}
