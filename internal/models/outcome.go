package models

// PreprocessingOutcome is the payload reported by preprocessing workers.
// A filtered outcome is a successful result indicating the text should not
// be translated - it is never treated as an error.
type PreprocessingOutcome struct {
	OriginalText     string  `json:"original_text"`
	PreprocessedText string  `json:"preprocessed_text"`
	DetectedLanguage string  `json:"detected_language"`
	ElapsedMs        float64 `json:"preprocessing_time_ms"`
	Filtered         bool    `json:"filtered"`
	FilterReason     string  `json:"filter_reason,omitempty"`
}

// TranslationTimings is the latency breakdown reported by the backend
type TranslationTimings struct {
	CacheLookupMs float64 `json:"cache_lookup_ms"`
	ModelMs       float64 `json:"model_ms"`
	TotalMs       float64 `json:"total_ms"`
}

// TranslationOutcome is the terminal result of one single-language
// translation call. Written once by the translation invoker.
type TranslationOutcome struct {
	TranslatedText string             `json:"translated_text"`
	CacheHit       bool               `json:"cache_hit"`
	Timings        TranslationTimings `json:"timings"`
}
