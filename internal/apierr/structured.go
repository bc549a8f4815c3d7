package apierr

import (
	"fmt"
	"strings"

	"github.com/alnah/go-studygen/internal/lang"
)

// Kind is the classified category of a failure.
type Kind string

// Failure kinds.
const (
	KindRateLimited        Kind = "rate_limited"
	KindTimeout            Kind = "timeout"
	KindServiceUnavailable Kind = "service_unavailable"
	KindAuthFailure        Kind = "auth_failure"
	KindInvalidRequest     Kind = "invalid_request"
	KindUnparsableResponse Kind = "unparsable_response"
	KindUnknown            Kind = "unknown"
)

// Retryable reports whether failures of this kind are transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindServiceUnavailable:
		return true
	default:
		return false
	}
}

// sentinel returns the sentinel error matching the kind.
func (k Kind) sentinel() error {
	switch k {
	case KindRateLimited:
		return ErrRateLimit
	case KindTimeout:
		return ErrTimeout
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	case KindAuthFailure:
		return ErrAuthFailed
	case KindInvalidRequest:
		return ErrBadRequest
	case KindUnparsableResponse:
		return ErrUnparsable
	default:
		return ErrUnknown
	}
}

// Context identifies where a failure happened. It is included in the
// internal diagnostic, never in the user message.
type Context struct {
	Mode         string
	DocumentIDs  []string
	CollectionID string
	// ChunkIndex is 0-based. Only meaningful when ChunkTotal > 0.
	ChunkIndex int
	ChunkTotal int
	Attempts   int
}

// merge returns c with the non-zero fields of o applied.
func (c Context) merge(o Context) Context {
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if len(o.DocumentIDs) > 0 {
		c.DocumentIDs = o.DocumentIDs
	}
	if o.CollectionID != "" {
		c.CollectionID = o.CollectionID
	}
	if o.ChunkTotal > 0 {
		c.ChunkIndex = o.ChunkIndex
		c.ChunkTotal = o.ChunkTotal
	}
	if o.Attempts > 0 {
		c.Attempts = o.Attempts
	}
	return c
}

func (c Context) String() string {
	var parts []string
	if c.Mode != "" {
		parts = append(parts, "mode="+c.Mode)
	}
	if c.CollectionID != "" {
		parts = append(parts, "collection="+c.CollectionID)
	}
	if len(c.DocumentIDs) > 0 {
		parts = append(parts, "documents="+strings.Join(c.DocumentIDs, ","))
	}
	if c.ChunkTotal > 0 {
		parts = append(parts, fmt.Sprintf("chunk=%d/%d", c.ChunkIndex+1, c.ChunkTotal))
	}
	if c.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("attempts=%d", c.Attempts))
	}
	return strings.Join(parts, " ")
}

// StructuredError is a classified failure.
// Error returns the internal diagnostic; UserMessage is safe to show to end users.
type StructuredError struct {
	Kind        Kind
	Retryable   bool
	UserMessage string
	Context     Context
	Err         error
}

// New creates a StructuredError of the given kind with a user message in l.
func New(kind Kind, l lang.Language, cause error) *StructuredError {
	return &StructuredError{
		Kind:        kind,
		Retryable:   kind.Retryable(),
		UserMessage: UserMessage(kind, l),
		Err:         cause,
	}
}

func (e *StructuredError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if ctx := e.Context.String(); ctx != "" {
		b.WriteString(" (")
		b.WriteString(ctx)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *StructuredError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// WithContext returns a copy of e with the non-zero fields of c applied.
func (e *StructuredError) WithContext(c Context) *StructuredError {
	out := *e
	out.Context = e.Context.merge(c)
	return &out
}

// userMessages holds short, content-free messages per kind and language.
var userMessages = map[Kind]map[string]string{
	KindRateLimited: {
		lang.English: "The generation service is busy. Please try again in a few minutes.",
		lang.French:  "Le service de génération est saturé. Veuillez réessayer dans quelques minutes.",
	},
	KindTimeout: {
		lang.English: "The generation service took too long to respond. Please try again.",
		lang.French:  "Le service de génération a mis trop de temps à répondre. Veuillez réessayer.",
	},
	KindServiceUnavailable: {
		lang.English: "The generation service is temporarily unavailable. Please try again later.",
		lang.French:  "Le service de génération est temporairement indisponible. Veuillez réessayer plus tard.",
	},
	KindAuthFailure: {
		lang.English: "The generation service rejected our credentials. Please contact support.",
		lang.French:  "Le service de génération a refusé nos identifiants. Veuillez contacter le support.",
	},
	KindInvalidRequest: {
		lang.English: "The generation request was rejected. Try a shorter text or fewer items.",
		lang.French:  "La demande de génération a été refusée. Essayez un texte plus court ou moins d'éléments.",
	},
	KindUnparsableResponse: {
		lang.English: "The generated content could not be read. Please try again.",
		lang.French:  "Le contenu généré n'a pas pu être lu. Veuillez réessayer.",
	},
	KindUnknown: {
		lang.English: "Generation failed unexpectedly. Please try again.",
		lang.French:  "La génération a échoué de manière inattendue. Veuillez réessayer.",
	},
}

// UserMessage returns the localized message for kind. The zero Language
// uses lang.Fallback.
func UserMessage(kind Kind, l lang.Language) string {
	msgs, ok := userMessages[kind]
	if !ok {
		msgs = userMessages[KindUnknown]
	}
	return msgs[l.OrDefault().String()]
}
