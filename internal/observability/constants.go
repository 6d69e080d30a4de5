package observability

// Span names for the provider adapters, solver loops, sandbox, and ARC-3 runner.
const (
	SpanProviderCall      = "provider.call"
	SpanPromptAssembly    = "prompt.assemble"
	SpanResponseParse     = "response.parse"
	SpanGroverIteration   = "grover.iteration"
	SpanSandboxExecution  = "sandbox.execute"
	SpanARC3Action        = "arc3.action"
	SpanARC3FrameUnpack   = "arc3.frame_unpack"
	SpanStoreQuery        = "store.query"
)

// Span/log attribute keys.
const (
	AttrProviderName  = "provider.name"
	AttrModelName     = "model.name"
	AttrPuzzleID      = "puzzle.id"
	AttrGameID        = "arc3.game_id"
	AttrSessionID     = "streaming.session_id"
	AttrTokensInput   = "tokens.input"
	AttrTokensOutput  = "tokens.output"
	AttrTokensReason  = "tokens.reasoning"
	AttrErrorKind     = "error.kind"
	AttrHTTPStatus    = "http.status_code"
)

// DefaultServiceName identifies this process in traces and metrics.
const DefaultServiceName = "arc-explainer"
