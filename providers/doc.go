// 版权所有 2024 ImageFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 providers 承载各图像后端适配器共享的基础设施：

  - 每个后端的 Config 结构与 Default 函数；
  - ModelCache：按 (provider, credential, base URL) 键控的模型目录
    缓存，写入原子覆盖，支持显式失效与可选的二级 CatalogStore；
  - PollJob / RunPollJob：提交后轮询的通用状态机。每个后端只提供
    轮询函数、固定间隔与次数上限，状态机本身只写一次；
  - Registry：线程安全的名称到适配器注册表。

具体适配器实现位于子包 blackforest、ideogram、luma、runway、
stability 与 openai。
*/
package providers
