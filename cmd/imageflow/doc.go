// 版权所有 2024 ImageFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 main 提供 ImageFlow 命令行入口。

# 概述

cmd/imageflow 是图像生成网关的可执行入口，提供单次生成、模型目录
查询和版本查询子命令。程序支持 YAML 配置文件加载、环境变量覆盖、
结构化日志（zap）、可选的 Redis 模型目录存储与 SQLite 用量记录。

# 子命令

  - generate — 向指定后端提交一次图像生成（异步后端自动轮询到终态）
  - models   — 列出指定后端的可用模型
  - version  — 显示版本信息

# 使用示例

	imageflow generate --provider luma --size 1792x1024 "a lighthouse at dusk"
	imageflow models --provider stability
	imageflow generate --config /etc/imageflow/config.yaml --provider openai "a red fox"
*/
package main
