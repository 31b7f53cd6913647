package relay

import (
	"github.com/tidwall/gjson"
)

// Response fields produced by Hugging Face inference tasks
const (
	FieldSummaryText   = "summary_text"
	FieldGeneratedText = "generated_text"
)

// DefaultTextFields is the field preference used when none is configured
var DefaultTextFields = []string{FieldSummaryText, FieldGeneratedText}

// DefaultFallbackMessage is returned when no extractor matches
const DefaultFallbackMessage = "No output"

// StrategyFallback names the extraction that used the fallback message
const StrategyFallback = "fallback"

// Extraction is the text pulled out of an upstream response
type Extraction struct {
	Text     string
	Field    string // Empty for plain strings and the fallback
	Strategy string // Name of the matching extractor, set by Reconciler
}

// Extractor pulls result text out of one upstream response shape
type Extractor interface {
	Name() string
	Extract(doc gjson.Result) (Extraction, bool)
}

// SequenceExtractor matches an array whose first element is a result object
type SequenceExtractor struct {
	Fields []string
}

func (e SequenceExtractor) Name() string { return "sequence" }

func (e SequenceExtractor) Extract(doc gjson.Result) (Extraction, bool) {
	if !doc.IsArray() {
		return Extraction{}, false
	}
	return firstTextField(doc.Get("0"), e.Fields)
}

// ObjectExtractor matches a single result object
type ObjectExtractor struct {
	Fields []string
}

func (e ObjectExtractor) Name() string { return "object" }

func (e ObjectExtractor) Extract(doc gjson.Result) (Extraction, bool) {
	return firstTextField(doc, e.Fields)
}

// StringExtractor matches a bare JSON string
type StringExtractor struct{}

func (StringExtractor) Name() string { return "string" }

func (StringExtractor) Extract(doc gjson.Result) (Extraction, bool) {
	if doc.Type != gjson.String || doc.Str == "" {
		return Extraction{}, false
	}
	return Extraction{Text: doc.Str}, true
}

func firstTextField(obj gjson.Result, fields []string) (Extraction, bool) {
	if !obj.IsObject() {
		return Extraction{}, false
	}
	for _, field := range fields {
		value := obj.Get(gjson.Escape(field))
		if value.Type == gjson.String && value.Str != "" {
			return Extraction{Text: value.Str, Field: field}, true
		}
	}
	return Extraction{}, false
}

// Reconciler tries extractors in order; the first match wins
type Reconciler struct {
	extractors []Extractor
	fallback   string
}

// NewReconciler creates the default sequence, object, string reconciler
func NewReconciler(fields []string, fallback string) *Reconciler {
	if len(fields) == 0 {
		fields = DefaultTextFields
	}
	return NewReconcilerWith(fallback,
		SequenceExtractor{Fields: fields},
		ObjectExtractor{Fields: fields},
		StringExtractor{},
	)
}

// NewReconcilerWith creates a reconciler with a custom extractor chain
func NewReconcilerWith(fallback string, extractors ...Extractor) *Reconciler {
	if fallback == "" {
		fallback = DefaultFallbackMessage
	}
	return &Reconciler{extractors: extractors, fallback: fallback}
}

// Reconcile extracts result text from a parsed upstream document
func (r *Reconciler) Reconcile(doc gjson.Result) Extraction {
	for _, extractor := range r.extractors {
		if extraction, ok := extractor.Extract(doc); ok {
			extraction.Strategy = extractor.Name()
			return extraction
		}
	}
	return Extraction{Text: r.fallback, Strategy: StrategyFallback}
}
