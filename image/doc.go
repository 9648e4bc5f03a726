// 版权所有 2024 ImageFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 image 定义图像生成网关的规范请求/响应模型、统一错误分类与
适配器契约，屏蔽不同服务商（Black Forest Labs、Ideogram、Luma、
Runway、Stability AI、OpenAI）在提交协议、轮询节奏与终态词汇上的
差异，对上层暴露一致的"生成图像"操作。

# 核心类型

  - GenerateRequest / GenerateResponse：规范请求与响应模型。
    请求包含 prompt、模型、尺寸、质量、风格、种子与响应格式；
    响应为 {created, data:[{url, revised_prompt}]}，其中 url 可能是
    远程链接，也可能是 base64 data URI（二进制后端）。
  - Adapter：每个后端必须实现的能力接口，包含 ProviderName、
    GetModelID、ListModels、ProcessCompletion、ProcessEmbeddings
    与 ProcessImageGeneration 六个方法。
  - Error / ErrorCode：统一错误分类。参数错误（ErrInvalidRequest）、
    能力缺失（ErrUnsupported）、后端失败（ErrProviderAPI）、轮询
    超时（ErrProviderTimeout, 408）与取消（ErrCancelled）。

# 设计约束

  - 参数翻译表是全函数：未识别的取值映射到文档化默认值，翻译
    本身绝不失败；只有缺失 prompt（或必填 model）会拒绝请求。
  - 适配器无每次调用间的可变状态；并发调用无需协调。
  - 失败绝不被吞掉：每条失败路径都落在上述分类之一，并标注
    来源后端。
*/
package image
