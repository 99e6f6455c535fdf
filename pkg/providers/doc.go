// Package providers groups the concrete model backends.
//
// It is organized into sub-packages:
//   - [github.com/h9-tec/AI-agent-explained/pkg/providers/openai] — remote backend speaking the OpenAI Chat Completions API with native tool calls
//   - [github.com/h9-tec/AI-agent-explained/pkg/providers/llamacpp] — local llama.cpp backend that emulates tool calls through the textual TOOL_CALL convention
//
// Both satisfy [github.com/h9-tec/AI-agent-explained/pkg/modeladapter.Completer].
package providers
