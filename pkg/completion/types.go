package completion

// Wire types of the foundation models completion API.

type completionRequest struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
}

type completionOptions struct {
	Stream           bool             `json:"stream"`
	Temperature      float64          `json:"temperature"`
	MaxTokens        string           `json:"maxTokens"`
	ReasoningOptions reasoningOptions `json:"reasoningOptions"`
}

type reasoningOptions struct {
	Mode string `json:"mode"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type completionResponse struct {
	Result *completionResult `json:"result"`
}

type completionResult struct {
	Alternatives []alternative `json:"alternatives"`
	Usage        *usage        `json:"usage,omitempty"`
	ModelVersion string        `json:"modelVersion,omitempty"`
}

type alternative struct {
	Message message `json:"message"`
	Status  string  `json:"status,omitempty"`
}

// Token counts are int64 values encoded as strings.
type usage struct {
	InputTextTokens  string `json:"inputTextTokens"`
	CompletionTokens string `json:"completionTokens"`
	TotalTokens      string `json:"totalTokens"`
}

type providerError struct {
	Error *struct {
		GRPCCode   int    `json:"grpcCode"`
		HTTPCode   int    `json:"httpCode"`
		Message    string `json:"message"`
		HTTPStatus string `json:"httpStatus"`
	} `json:"error"`
}
