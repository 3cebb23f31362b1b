package httpapi

import (
	"strings"
	"testing"
)

func validRequest() analyzeRequest {
	return analyzeRequest{
		Sentence:       "She broke the ice with a joke.",
		TargetWord:     "ice",
		TargetLanguage: "es",
		NativeLanguage: "en",
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	if err := validRequest().validate(); err != nil {
		t.Errorf("expected valid request to pass, got %v", err)
	}
}

func TestValidateRejectsEmptySentence(t *testing.T) {
	r := validRequest()
	r.Sentence = "   "
	if err := r.validate(); err == nil {
		t.Error("expected error for blank sentence")
	}
}

func TestValidateRejectsEmptyTargetWord(t *testing.T) {
	r := validRequest()
	r.TargetWord = ""
	if err := r.validate(); err == nil {
		t.Error("expected error for missing target word")
	}
}

func TestValidateRejectsOverlongSentence(t *testing.T) {
	r := validRequest()
	r.Sentence = strings.Repeat("a", 1001)
	if err := r.validate(); err == nil {
		t.Error("expected error for sentence over 1000 chars")
	}
}

func TestValidateRejectsOverlongContext(t *testing.T) {
	r := validRequest()
	r.ContextBefore = strings.Repeat("a", 501)
	if err := r.validate(); err == nil {
		t.Error("expected error for context over 500 chars")
	}
}

func TestValidateRejectsUnsupportedLanguage(t *testing.T) {
	r := validRequest()
	r.TargetLanguage = "xx"
	if err := r.validate(); err == nil {
		t.Error("expected error for unsupported target language")
	}
}

func TestIsSupportedLanguageCaseInsensitive(t *testing.T) {
	if !isSupportedLanguage("  EN  ") {
		t.Error("expected 'EN' (trimmed/uppercase) to be recognized as supported")
	}
	if !isSupportedLanguage("zh-CN") {
		t.Error("expected zh-CN variant to be recognized")
	}
	if isSupportedLanguage("klingon") {
		t.Error("expected unsupported language code to be rejected")
	}
}
