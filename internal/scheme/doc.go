// Package scheme 聚合模块 specifier 的各类前缀（file/http/https/npm），并提供统一的注册入口。
//
// 新增 scheme 时需要：
//  1. 在 internal/scheme/<key>/ 目录下声明元数据；
//  2. 在 init() 中通过 MustRegister 注册；
//  3. 在 internal/specifier/schemes.go 中以空导入方式启用。
//
// 分类器依据注册表判定远程前缀与改写规则，诊断接口 /-/modules 也从这里读取。
package scheme
