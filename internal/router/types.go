package router

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is a single turn of the conversation history sent by a client.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Complexity buckets produced by Classify.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// SelectionCriteria is the request-scoped input to Select. It is built per
// request and discarded after the decision; never persisted.
type SelectionCriteria struct {
	Category   Category
	Premium    bool
	Used       int64
	Limit      int64
	Complexity Complexity
}

// Budget is the read view of a user's monthly counters.
type Budget struct {
	Used    int64
	Limit   int64
	Premium bool
}

// UsageRecord describes one billed completion for Commit.
type UsageRecord struct {
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	CostUSD          float64
	Endpoint         string
}

// TokensUsed is the total billed token count of the record.
func (r UsageRecord) TokensUsed() int64 {
	return r.PromptTokens + r.CompletionTokens
}

// RouteRequest is one inbound chat request. An empty UserID means anonymous
// mode: no budget check, no usage accounting, always the category primary.
type RouteRequest struct {
	Messages []ChatMessage
	Category Category
	UserID   string
}

// RouteResult is the outcome of a successfully routed request.
type RouteResult struct {
	Text       string
	Model      string
	TokensUsed int64
	CostUSD    float64
	// Warning is set when the completion succeeded but usage accounting
	// failed; the answer is still returned to the caller.
	Warning string
}
